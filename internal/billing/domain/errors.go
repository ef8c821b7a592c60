package domain

import "errors"

var (
	ErrNotFound = errors.New("not_found")

	// ErrNotEligible rejects appointments outside ready_to_bill (or self-pay
	// completed).
	ErrNotEligible = errors.New("appointment_not_eligible")

	// ErrDuplicateBillingItem surfaces the storage uniqueness violation for
	// (appointment, cycle). Always a logic bug in the caller, never ignored.
	ErrDuplicateBillingItem = errors.New("duplicate_billing_item")

	ErrZeroAmounts         = errors.New("billing_amounts_both_zero")
	ErrSelfPayPriceMissing = errors.New("self_pay_price_missing")
	ErrMissingInsurer      = errors.New("appointment_missing_insurer")
	ErrCycleNotDraft       = errors.New("billing_cycle_not_draft")
	ErrCycleMismatch       = errors.New("appointment_outside_cycle")
	ErrInvalidTransition   = errors.New("invalid_cycle_transition")
	ErrCycleEmpty          = errors.New("billing_cycle_empty")
	ErrCycleExists         = errors.New("billing_cycle_already_exists")
	ErrCycleHasItems       = errors.New("billing_cycle_has_items")
	ErrInvalidCyclePeriod  = errors.New("invalid_cycle_period")
)
