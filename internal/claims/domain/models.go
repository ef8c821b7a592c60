package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DocumentStatus is the lifecycle of generated claims and invoices. Delivery
// and payment happen outside the system; the status only tracks what is
// known here.
type DocumentStatus string

const (
	StatusCreated   DocumentStatus = "created"
	StatusSent      DocumentStatus = "sent"
	StatusPaid      DocumentStatus = "paid"
	StatusCancelled DocumentStatus = "cancelled"
)

// CanTransitionTo encodes the forward-only document machine. Paid and
// cancelled are terminal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusCreated:
		return next == StatusSent || next == StatusPaid || next == StatusCancelled
	case StatusSent:
		return next == StatusPaid || next == StatusCancelled
	default:
		return false
	}
}

// InvoiceKind selects the invoice table an operation addresses.
type InvoiceKind string

const (
	InvoiceKindCopay   InvoiceKind = "copay"
	InvoiceKindPrivate InvoiceKind = "private"
)

// InsurerClaim is the claim document sent to one concrete insurer for one
// billing cycle. Amounts are frozen at generation; the claim is immutable
// apart from its status.
type InsurerClaim struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	BillingCycleID snowflake.ID   `gorm:"not null;uniqueIndex:ux_insurer_claims_cycle_insurer,priority:1"`
	InsurerID      snowflake.ID   `gorm:"not null;uniqueIndex:ux_insurer_claims_cycle_insurer,priority:2"`
	ClaimNumber    string         `gorm:"type:text;not null;uniqueIndex"`
	AmountCents    int64          `gorm:"not null"`
	ItemCount      int64          `gorm:"not null"`
	Status         DocumentStatus `gorm:"type:text;not null;default:'created'"`
	SentAt         *time.Time     `gorm:""`
	PaidAt         *time.Time     `gorm:""`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InsurerClaim) TableName() string { return "insurer_claims" }

// PatientCopayInvoice bills one patient's accumulated statutory copays under
// one insurer claim.
type PatientCopayInvoice struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	ClaimID         snowflake.ID   `gorm:"not null;uniqueIndex:ux_copay_invoices_claim_patient,priority:1"`
	BillingCycleID  snowflake.ID   `gorm:"not null;index"`
	PatientID       snowflake.ID   `gorm:"not null;uniqueIndex:ux_copay_invoices_claim_patient,priority:2"`
	InvoiceNumber   string         `gorm:"type:text;not null;uniqueIndex"`
	AmountCents     int64          `gorm:"not null"`
	Status          DocumentStatus `gorm:"type:text;not null;default:'created'"`
	DueDate         time.Time      `gorm:"not null"`
	SentAt          *time.Time     `gorm:""`
	PaidAt          *time.Time     `gorm:""`
	PaidAmountCents *int64         `gorm:""`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PatientCopayInvoice) TableName() string { return "patient_copay_invoices" }

// PrivatePatientInvoice bills one patient's private and self-pay amounts for
// one billing cycle directly, with no insurer claim in between.
type PrivatePatientInvoice struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	BillingCycleID  snowflake.ID   `gorm:"not null;uniqueIndex:ux_private_invoices_cycle_patient,priority:1"`
	PatientID       snowflake.ID   `gorm:"not null;uniqueIndex:ux_private_invoices_cycle_patient,priority:2"`
	InvoiceNumber   string         `gorm:"type:text;not null;uniqueIndex"`
	AmountCents     int64          `gorm:"not null"`
	Status          DocumentStatus `gorm:"type:text;not null;default:'created'"`
	DueDate         time.Time      `gorm:"not null"`
	SentAt          *time.Time     `gorm:""`
	PaidAt          *time.Time     `gorm:""`
	PaidAmountCents *int64         `gorm:""`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PrivatePatientInvoice) TableName() string { return "private_patient_invoices" }
