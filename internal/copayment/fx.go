package copayment

import (
	"github.com/praxisuite/therabill/internal/copayment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("copayment.service",
	fx.Provide(service.NewCalculator),
)
