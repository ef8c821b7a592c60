package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/praxisuite/therabill/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	CreateCycle(ctx context.Context, c *BillingCycle) error
	FindCycle(ctx context.Context, id snowflake.ID) (*BillingCycle, error)
	// FindOverlappingCycle scopes the overlap check to one insurer slot;
	// a nil insurer id addresses the self-pay slot.
	FindOverlappingCycle(ctx context.Context, insurerID *snowflake.ID, from, until time.Time) (*BillingCycle, error)
	ListCycles(ctx context.Context, opts ...option.QueryOption) ([]BillingCycle, error)
	UpdateCycleStatus(ctx context.Context, c *BillingCycle, now time.Time) error
	UpdateCycleTotals(ctx context.Context, id snowflake.ID, totals CycleTotals, now time.Time) error
	DeleteCycle(ctx context.Context, id snowflake.ID) error

	CreateItem(ctx context.Context, item *BillingItem) error
	FindItem(ctx context.Context, appointmentID, cycleID snowflake.ID) (*BillingItem, error)
	ListItems(ctx context.Context, cycleID snowflake.ID, opts ...option.QueryOption) ([]BillingItem, error)
	// SumTotals derives the full-sum cycle totals from the store.
	SumTotals(ctx context.Context, cycleID snowflake.ID) (CycleTotals, error)
}
