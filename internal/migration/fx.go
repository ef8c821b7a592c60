package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/praxisuite/therabill/internal/config"
	"github.com/praxisuite/therabill/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		// The embedded migrations target postgres; other dialects are
		// expected to be migrated externally.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultGroups(conn, genID)
	}),
)
