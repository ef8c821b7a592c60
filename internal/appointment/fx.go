package appointment

import (
	"github.com/praxisuite/therabill/internal/appointment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("appointment.readmodel",
	fx.Provide(repository.NewRepository),
)
