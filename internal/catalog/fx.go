package catalog

import (
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"github.com/praxisuite/therabill/internal/catalog/repository"
	"github.com/praxisuite/therabill/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(svc catalogdomain.Service) catalogdomain.Resolver { return svc }),
)
