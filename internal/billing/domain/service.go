package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/praxisuite/therabill/pkg/db/option"
)

type Service interface {
	// CreateItem turns one eligible appointment into exactly one billing
	// item within the cycle, resolving prices and the statutory copay.
	CreateItem(ctx context.Context, req CreateItemRequest) (*BillingItem, error)

	// RecomputeTotals re-derives cycle totals as a full sum over items.
	RecomputeTotals(ctx context.Context, cycleID snowflake.ID) (*BillingCycle, error)

	// Transition advances the cycle state machine; no skipping, no going back.
	Transition(ctx context.Context, cycleID snowflake.ID, next CycleStatus) (*BillingCycle, error)

	// CreateCyclesForRange creates one draft cycle per insurer with eligible
	// appointments in the range (plus a self-pay slot), skipping insurers
	// that already have an overlapping cycle. Safe to re-run.
	CreateCyclesForRange(ctx context.Context, from, until time.Time) ([]CycleCreationResult, error)

	// BillCycle bills every eligible appointment of the cycle's slot,
	// continuing past per-item failures and reporting each outcome.
	BillCycle(ctx context.Context, cycleID snowflake.ID) (*BillingRunReport, error)

	GetCycle(ctx context.Context, cycleID snowflake.ID) (*BillingCycle, error)
	ListCycles(ctx context.Context, opts ...option.QueryOption) ([]BillingCycle, error)
	ListItems(ctx context.Context, cycleID snowflake.ID, opts ...option.QueryOption) ([]BillingItem, error)
	DeleteCycle(ctx context.Context, cycleID snowflake.ID) error
}

type CreateItemRequest struct {
	AppointmentID  snowflake.ID `json:"appointment_id"`
	BillingCycleID snowflake.ID `json:"billing_cycle_id"`
}

// CycleCreationResult is the per-insurer outcome of a bulk cycle creation.
type CycleCreationResult struct {
	InsurerID *snowflake.ID `json:"insurer_id,omitempty"`
	SelfPay   bool          `json:"self_pay,omitempty"`
	CycleID   *snowflake.ID `json:"cycle_id,omitempty"`
	Skipped   string        `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ItemOutcome is the per-appointment outcome of a billing run.
type ItemOutcome struct {
	AppointmentID snowflake.ID  `json:"appointment_id"`
	BillingItemID *snowflake.ID `json:"billing_item_id,omitempty"`
	Skipped       string        `json:"skipped,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// BillingRunReport enumerates every appointment touched by a billing run.
// Partial progress is expected; per-item failures never abort the batch.
type BillingRunReport struct {
	CycleID  snowflake.ID  `json:"cycle_id"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Outcomes []ItemOutcome `json:"outcomes"`
}
