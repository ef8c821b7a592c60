package scheduler

import (
	"context"
	"time"

	"github.com/praxisuite/therabill/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(func(p Params, cfg config.Config) (*Scheduler, error) {
		return New(p, time.Duration(cfg.SchedulerInterval)*time.Second)
	}),
	fx.Invoke(Start),
)

// Start hooks the scheduler loop into the application lifecycle. A zero
// interval disables it.
func Start(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if cfg.SchedulerInterval <= 0 {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
