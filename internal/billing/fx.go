package billing

import (
	"github.com/praxisuite/therabill/internal/billing/repository"
	"github.com/praxisuite/therabill/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
