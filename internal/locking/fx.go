package locking

import (
	"github.com/praxisuite/therabill/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("locking",
	fx.Provide(New),
)

// New selects the distributed locker when redis is configured and falls back
// to the in-process keyed mutex otherwise.
func New(cfg config.Config, log *zap.Logger) Locker {
	if cfg.RedisAddr == "" {
		return NewKeyedMutex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	log.Named("locking").Info("using redis locker", zap.String("addr", cfg.RedisAddr))
	return NewRedisLocker(client)
}
