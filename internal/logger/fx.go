package logger

import (
	"context"
	"os"
	"strings"

	"github.com/praxisuite/therabill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewFromConfig creates a zap logger enriched with service metadata.
func NewFromConfig(appCfg config.Config) (*zap.Logger, error) {
	level := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	log, err := New(level)
	if err != nil {
		return nil, err
	}

	log = log.With(
		zap.String("service", appCfg.AppName),
		zap.String("env", appCfg.Environment),
		zap.String("version", appCfg.AppVersion),
	)
	zap.ReplaceGlobals(log)
	return log, nil
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			_ = log.Sync()
			return nil
		},
	})
}

// Module wires the global zap logger for the application.
var Module = fx.Module("logger",
	fx.Provide(NewFromConfig),
	fx.Invoke(registerHooks),
)
