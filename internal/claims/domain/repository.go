package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// InsurerShare is one insurer's aggregated statutory slice of a cycle.
type InsurerShare struct {
	InsurerID   snowflake.ID
	AmountCents int64
	ItemCount   int64
}

// PatientShare is one patient's aggregated amount within a cycle scope.
type PatientShare struct {
	PatientID   snowflake.ID
	AmountCents int64
}

type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	CreateClaim(ctx context.Context, claim *InsurerClaim) error
	FindClaim(ctx context.Context, id snowflake.ID) (*InsurerClaim, error)
	ListClaims(ctx context.Context, cycleID snowflake.ID) ([]InsurerClaim, error)
	UpdateClaim(ctx context.Context, claim *InsurerClaim) error

	CreateCopayInvoice(ctx context.Context, inv *PatientCopayInvoice) error
	FindCopayInvoice(ctx context.Context, id snowflake.ID) (*PatientCopayInvoice, error)
	ListCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]PatientCopayInvoice, error)
	UpdateCopayInvoice(ctx context.Context, inv *PatientCopayInvoice) error

	CreatePrivateInvoice(ctx context.Context, inv *PrivatePatientInvoice) error
	FindPrivateInvoice(ctx context.Context, id snowflake.ID) (*PrivatePatientInvoice, error)
	ListPrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]PrivatePatientInvoice, error)
	UpdatePrivateInvoice(ctx context.Context, inv *PrivatePatientInvoice) error

	// InsurerShares aggregates the statutory items of a cycle per insurer.
	InsurerShares(ctx context.Context, cycleID snowflake.ID) ([]InsurerShare, error)
	// CopayShares aggregates nonzero statutory copays per patient for one
	// insurer within a cycle.
	CopayShares(ctx context.Context, cycleID, insurerID snowflake.ID) ([]PatientShare, error)
	// PrivateShares aggregates nonzero private and self-pay patient amounts
	// per patient within a cycle.
	PrivateShares(ctx context.Context, cycleID snowflake.ID) ([]PatientShare, error)

	// OverdueInvoices lists unpaid invoices of both kinds past the given
	// due date.
	OverdueInvoices(ctx context.Context, before time.Time) ([]OverdueInvoice, error)
}

// OverdueInvoice is a flattened view over both invoice tables for sweeps.
type OverdueInvoice struct {
	Kind        InvoiceKind
	ID          snowflake.ID
	PatientID   snowflake.ID
	AmountCents int64
	Status      DocumentStatus
	DueDate     time.Time
}
