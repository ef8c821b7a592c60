// Package domain defines the statutory copayment ceilings. Statutorily
// insured patients pay at most a fixed amount per calendar quarter and per
// calendar year; everything above is absorbed by the insurer side.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Allowance is the copay headroom a patient has left at a point in time.
type Allowance struct {
	QuarterRemainingCents int64 `json:"quarter_remaining_cents"`
	YearRemainingCents    int64 `json:"year_remaining_cents"`
}

type Calculator interface {
	// RemainingAllowance reports the unconsumed quarterly and yearly copay
	// headroom for the patient as of the given service date.
	RemainingAllowance(ctx context.Context, patientID snowflake.ID, on time.Time) (*Allowance, error)

	// ComputeCopay clamps a base copay amount against the patient's
	// remaining quarterly and yearly headroom. The result is
	// max(0, min(base, quarter remaining, year remaining)). Order matters:
	// callers must serialize per patient so each billed copay is visible to
	// the next computation.
	ComputeCopay(ctx context.Context, patientID snowflake.ID, baseCents int64, on time.Time) (int64, error)
}

// QuarterBounds returns the inclusive calendar-quarter window containing on.
func QuarterBounds(on time.Time) (time.Time, time.Time) {
	on = on.UTC()
	q := (int(on.Month()) - 1) / 3
	start := time.Date(on.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).Add(-time.Nanosecond)
	return start, end
}

// YearBounds returns the inclusive calendar-year window containing on.
func YearBounds(on time.Time) (time.Time, time.Time) {
	on = on.UTC()
	start := time.Date(on.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return start, end
}
