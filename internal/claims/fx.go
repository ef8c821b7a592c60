package claims

import (
	"github.com/praxisuite/therabill/internal/claims/repository"
	"github.com/praxisuite/therabill/internal/claims/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claims.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
