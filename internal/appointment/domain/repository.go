package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id snowflake.ID) (*Appointment, error)
	// ListBillableForInsurer returns eligible insurer-covered appointments
	// within the date range (inclusive).
	ListBillableForInsurer(ctx context.Context, insurerID snowflake.ID, from, until time.Time) ([]Appointment, error)
	// ListBillableSelfPay returns eligible self-pay appointments in range.
	ListBillableSelfPay(ctx context.Context, from, until time.Time) ([]Appointment, error)
	// InsurersWithBillable lists distinct insurer ids having eligible
	// appointments in the range.
	InsurersWithBillable(ctx context.Context, from, until time.Time) ([]snowflake.ID, error)
	// MarkBilled is the single status mutation billing owns.
	MarkBilled(ctx context.Context, id snowflake.ID, now time.Time) error
}
