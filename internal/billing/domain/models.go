package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CycleStatus represents billing cycle progress.
type CycleStatus string

const (
	CycleStatusDraft     CycleStatus = "DRAFT"
	CycleStatusReady     CycleStatus = "READY"
	CycleStatusExported  CycleStatus = "EXPORTED"
	CycleStatusCompleted CycleStatus = "COMPLETED"
)

// CanTransitionTo encodes the forward-only cycle state machine.
func (s CycleStatus) CanTransitionTo(next CycleStatus) bool {
	switch s {
	case CycleStatusDraft:
		return next == CycleStatusReady
	case CycleStatusReady:
		return next == CycleStatusExported
	case CycleStatusExported:
		return next == CycleStatusCompleted
	default:
		return false
	}
}

// BillingCycle aggregates billing items for one insurer over a date range.
// A nil InsurerID marks the self-pay/private slot for the range. Totals are
// derived sums over the cycle's items and are always recomputed in full.
type BillingCycle struct {
	ID                      snowflake.ID      `gorm:"primaryKey"`
	InsurerID               *snowflake.ID     `gorm:"index"`
	PeriodStart             time.Time         `gorm:"not null"`
	PeriodEnd               time.Time         `gorm:"not null"`
	Status                  CycleStatus       `gorm:"type:text;not null;default:'DRAFT'"`
	TotalInsurerAmountCents int64             `gorm:"not null;default:0"`
	TotalPatientCopayCents  int64             `gorm:"not null;default:0"`
	ExportedAt              *time.Time        `gorm:""`
	CompletedAt             *time.Time        `gorm:""`
	Metadata                datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt               time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt               time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingCycle) TableName() string { return "billing_cycles" }

// BillingItem is the permanent record of one billed appointment. Amounts are
// resolved once at creation and frozen; later price period edits never reach
// back into an item. The (appointment, cycle) pair is unique in the store.
type BillingItem struct {
	ID                 snowflake.ID  `gorm:"primaryKey"`
	BillingCycleID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_billing_items_appointment_cycle,priority:2"`
	AppointmentID      snowflake.ID  `gorm:"not null;uniqueIndex:ux_billing_items_appointment_cycle,priority:1"`
	PatientID          snowflake.ID  `gorm:"not null;index"`
	TreatmentID        snowflake.ID  `gorm:"not null"`
	PrescriptionID     *snowflake.ID `gorm:""`
	InsurerID          *snowflake.ID `gorm:"index"`
	PricePeriodID      *snowflake.ID `gorm:""`
	Statutory          bool          `gorm:"not null;default:false"`
	InsurerAmountCents int64         `gorm:"not null"`
	PatientCopayCents  int64         `gorm:"not null"`
	ServiceDate        time.Time     `gorm:"not null;index"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingItem) TableName() string { return "billing_items" }

// CycleTotals is the recomputed aggregate over a cycle's items.
type CycleTotals struct {
	InsurerAmountCents int64
	PatientCopayCents  int64
	ItemCount          int64
}
