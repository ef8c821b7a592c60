// Package domain holds the read model over the scheduling subsystem.
// Appointments are produced elsewhere; billing consumes them read-only and
// owns exactly one transition: ready_to_bill (or self-pay completed) → billed.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status mirrors the scheduling subsystem's appointment lifecycle.
type Status string

const (
	StatusPlanned     Status = "planned"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusReadyToBill Status = "ready_to_bill"
	StatusBilled      Status = "billed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
)

// Appointment is the billing-facing view of a scheduled appointment.
type Appointment struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	PatientID       snowflake.ID  `gorm:"not null;index"`
	TreatmentID     snowflake.ID  `gorm:"not null;index"`
	PrescriptionID  *snowflake.ID `gorm:"index"`
	InsurerID       *snowflake.ID `gorm:"index"`
	Status          Status        `gorm:"type:text;not null"`
	IsSelfPay       bool          `gorm:"not null;default:false"`
	DurationMinutes int32         `gorm:"not null"`
	Date            time.Time     `gorm:"not null;index"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Appointment) TableName() string { return "appointments" }

// Billable reports whether the appointment is an eligible billing input.
func (a Appointment) Billable() bool {
	if a.Status == StatusReadyToBill {
		return true
	}
	return a.IsSelfPay && a.Status == StatusCompleted
}
