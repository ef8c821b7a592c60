package domain

import "errors"

var (
	ErrNotFound = errors.New("not_found")
	// ErrCycleNotReady rejects document generation for draft cycles; items
	// may still be added there.
	ErrCycleNotReady = errors.New("billing_cycle_not_ready")
	ErrInvalidInvoiceKind = errors.New("invalid_invoice_kind")
	ErrInvalidTransition  = errors.New("invalid_document_transition")
	ErrInvalidAmount      = errors.New("invalid_payment_amount")
)
