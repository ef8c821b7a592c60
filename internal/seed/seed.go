// Package seed bootstraps the reference data a fresh installation needs
// before any pricing can be configured.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"gorm.io/gorm"
)

// EnsureDefaultGroups creates the two insurer group kinds when the table is
// empty. Idempotent; existing data is never touched.
func EnsureDefaultGroups(conn *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := conn.Model(&catalogdomain.InsurerGroup{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	groups := []catalogdomain.InsurerGroup{
		{ID: genID.Generate(), Name: "Gesetzliche Krankenversicherung", Kind: catalogdomain.GroupKindStatutory, CreatedAt: now, UpdatedAt: now},
		{ID: genID.Generate(), Name: "Private Krankenversicherung", Kind: catalogdomain.GroupKindPrivate, CreatedAt: now, UpdatedAt: now},
	}
	return conn.Create(&groups).Error
}
