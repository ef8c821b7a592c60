package patient

import (
	"github.com/praxisuite/therabill/internal/patient/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("patient.readmodel",
	fx.Provide(repository.NewRepository),
)
