package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GroupKind distinguishes the two price-tariff regimes.
type GroupKind string

const (
	GroupKindStatutory GroupKind = "STATUTORY"
	GroupKindPrivate   GroupKind = "PRIVATE"
)

// OpenEndedUntil is the far-future sentinel for periods without a fixed end.
var OpenEndedUntil = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Treatment is a billable service type. Once billing items reference it,
// price-relevant fields must not be edited in place; already-billed amounts
// are frozen on the billing item anyway.
type Treatment struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Name              string       `gorm:"type:text;not null"`
	Category          string       `gorm:"type:text;not null;default:''"`
	DurationMinutes   int32        `gorm:"not null"`
	IsSelfPay         bool         `gorm:"not null;default:false"`
	SelfPayPriceCents *int64       `gorm:""`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Treatment) TableName() string { return "treatments" }

// InsurerGroup is the price-lookup key: a tariff category shared by many
// concrete insurers.
type InsurerGroup struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Kind      GroupKind    `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InsurerGroup) TableName() string { return "insurer_groups" }

// IsStatutory reports whether the group is subject to copayment ceilings.
func (g InsurerGroup) IsStatutory() bool { return g.Kind == GroupKindStatutory }

// Insurer is a concrete insurer; it belongs to exactly one group.
type Insurer struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	Name           string       `gorm:"type:text;not null"`
	InsurerGroupID snowflake.ID `gorm:"not null;index"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Insurer) TableName() string { return "insurers" }

// PricePeriod is a time-bounded price for a (treatment, insurer group) pair.
// Periods for one pair partition the timeline; they are never mutated or
// deleted once a billing item has resolved against them. A price change
// closes the open period and creates a new one.
type PricePeriod struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	TreatmentID        snowflake.ID `gorm:"not null;index:ix_price_periods_pair,priority:1"`
	InsurerGroupID     snowflake.ID `gorm:"not null;index:ix_price_periods_pair,priority:2"`
	InsurerAmountCents int64        `gorm:"not null"`
	PatientAmountCents int64        `gorm:"not null"`
	ValidFrom          time.Time    `gorm:"not null"`
	ValidUntil         time.Time    `gorm:"not null"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PricePeriod) TableName() string { return "price_periods" }

// Covers reports whether the period contains the given date (inclusive).
func (p PricePeriod) Covers(on time.Time) bool {
	return !on.Before(p.ValidFrom) && !on.After(p.ValidUntil)
}

// Overlaps reports whether two inclusive ranges intersect.
func (p PricePeriod) Overlaps(from, until time.Time) bool {
	return !until.Before(p.ValidFrom) && !from.After(p.ValidUntil)
}

// OverlapViolation reports two stored periods that intersect for the same
// (treatment, insurer group) pair.
type OverlapViolation struct {
	TreatmentID    snowflake.ID `json:"treatment_id"`
	InsurerGroupID snowflake.ID `json:"insurer_group_id"`
	PeriodID       snowflake.ID `json:"period_id"`
	OtherPeriodID  snowflake.ID `json:"other_period_id"`
}
