package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GenerateClaims creates one claim per insurer with statutory items in
	// the cycle. Re-running skips insurers that already have a claim.
	GenerateClaims(ctx context.Context, cycleID snowflake.ID) ([]ClaimResult, error)
	// GenerateCopayInvoices creates one invoice per patient with a nonzero
	// copay under the claim. Re-running skips existing invoices.
	GenerateCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]InvoiceResult, error)
	// GeneratePrivateInvoices creates one invoice per patient with nonzero
	// private or self-pay amounts in the cycle.
	GeneratePrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]InvoiceResult, error)

	MarkInvoiceSent(ctx context.Context, kind InvoiceKind, id snowflake.ID) error
	// MarkInvoicePaid records a payment and finishes the document machine.
	MarkInvoicePaid(ctx context.Context, kind InvoiceKind, id snowflake.ID, amountCents int64, paidAt time.Time) error

	ListClaims(ctx context.Context, cycleID snowflake.ID) ([]InsurerClaim, error)
	ListCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]PatientCopayInvoice, error)
	ListPrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]PrivatePatientInvoice, error)

	// OverdueInvoices lists unpaid invoices past due as of now.
	OverdueInvoices(ctx context.Context) ([]OverdueInvoice, error)

	// RenderPrivateInvoicePDF materializes the patient-facing document.
	RenderPrivateInvoicePDF(ctx context.Context, id snowflake.ID) ([]byte, error)
}

// ClaimResult is the per-insurer outcome of a claim generation run.
type ClaimResult struct {
	InsurerID   snowflake.ID  `json:"insurer_id"`
	ClaimID     *snowflake.ID `json:"claim_id,omitempty"`
	ClaimNumber string        `json:"claim_number,omitempty"`
	AmountCents int64         `json:"amount_cents"`
	Skipped     string        `json:"skipped,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// InvoiceResult is the per-patient outcome of an invoice generation run.
type InvoiceResult struct {
	PatientID     snowflake.ID  `json:"patient_id"`
	InvoiceID     *snowflake.ID `json:"invoice_id,omitempty"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	AmountCents   int64         `json:"amount_cents"`
	Skipped       string        `json:"skipped,omitempty"`
	Error         string        `json:"error,omitempty"`
}
