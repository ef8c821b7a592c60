package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	appointmentdomain "github.com/praxisuite/therabill/internal/appointment/domain"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecomputeTotals re-derives the cycle totals as a full sum over its items.
// Totals are never incremented in place; a full recompute is self-healing
// after any partial failure.
func (s *Service) RecomputeTotals(ctx context.Context, cycleID snowflake.ID) (*billingdomain.BillingCycle, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SumTotals(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.repo.UpdateCycleTotals(ctx, cycle.ID, totals, now); err != nil {
		return nil, err
	}

	cycle.TotalInsurerAmountCents = totals.InsurerAmountCents
	cycle.TotalPatientCopayCents = totals.PatientCopayCents
	cycle.UpdatedAt = now
	return cycle, nil
}

// Transition advances the cycle one step along draft, ready, exported,
// completed. Every other move is rejected.
func (s *Service) Transition(ctx context.Context, cycleID snowflake.ID, next billingdomain.CycleStatus) (*billingdomain.BillingCycle, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if !cycle.Status.CanTransitionTo(next) {
		return nil, billingdomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	switch next {
	case billingdomain.CycleStatusReady:
		totals, err := s.repo.SumTotals(ctx, cycle.ID)
		if err != nil {
			return nil, err
		}
		if totals.ItemCount == 0 {
			return nil, billingdomain.ErrCycleEmpty
		}
		if err := s.repo.UpdateCycleTotals(ctx, cycle.ID, totals, now); err != nil {
			return nil, err
		}
		cycle.TotalInsurerAmountCents = totals.InsurerAmountCents
		cycle.TotalPatientCopayCents = totals.PatientCopayCents
	case billingdomain.CycleStatusExported:
		cycle.ExportedAt = &now
	case billingdomain.CycleStatusCompleted:
		cycle.CompletedAt = &now
	}

	cycle.Status = next
	if err := s.repo.UpdateCycleStatus(ctx, cycle, now); err != nil {
		return nil, err
	}

	s.log.Info("billing cycle transitioned",
		zap.String("billing_cycle_id", cycle.ID.String()),
		zap.String("status", string(next)),
	)
	return cycle, nil
}

// CreateCyclesForRange creates one draft cycle per insurer that has eligible
// appointments in the range, plus the self-pay slot when self-pay
// appointments exist. Insurers already covered by an overlapping cycle are
// skipped, so an interrupted run can simply be repeated.
func (s *Service) CreateCyclesForRange(ctx context.Context, from, until time.Time) ([]billingdomain.CycleCreationResult, error) {
	from = from.UTC()
	until = until.UTC()
	if from.IsZero() || until.Before(from) {
		return nil, billingdomain.ErrInvalidCyclePeriod
	}

	insurerIDs, err := s.appointments.InsurersWithBillable(ctx, from, until)
	if err != nil {
		return nil, err
	}

	results := make([]billingdomain.CycleCreationResult, 0, len(insurerIDs)+1)
	for _, insurerID := range insurerIDs {
		id := insurerID
		result := billingdomain.CycleCreationResult{InsurerID: &id}
		cycle, err := s.createCycleForSlot(ctx, &id, from, until)
		switch {
		case errors.Is(err, billingdomain.ErrCycleExists):
			result.Skipped = billingdomain.ErrCycleExists.Error()
		case err != nil:
			result.Error = err.Error()
		default:
			result.CycleID = &cycle.ID
		}
		results = append(results, result)
	}

	selfPay, err := s.appointments.ListBillableSelfPay(ctx, from, until)
	if err != nil {
		return nil, err
	}
	if len(selfPay) > 0 {
		result := billingdomain.CycleCreationResult{SelfPay: true}
		cycle, err := s.createCycleForSlot(ctx, nil, from, until)
		switch {
		case errors.Is(err, billingdomain.ErrCycleExists):
			result.Skipped = billingdomain.ErrCycleExists.Error()
		case err != nil:
			result.Error = err.Error()
		default:
			result.CycleID = &cycle.ID
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Service) createCycleForSlot(ctx context.Context, insurerID *snowflake.ID, from, until time.Time) (*billingdomain.BillingCycle, error) {
	now := s.clock.Now()
	cycle := &billingdomain.BillingCycle{
		ID:          s.genID.Generate(),
		InsurerID:   insurerID,
		PeriodStart: from,
		PeriodEnd:   until,
		Status:      billingdomain.CycleStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		existing, err := repo.FindOverlappingCycle(ctx, insurerID, from, until)
		if err != nil {
			return err
		}
		if existing != nil {
			return billingdomain.ErrCycleExists
		}
		if err := repo.CreateCycle(ctx, cycle); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return billingdomain.ErrCycleExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cycle, nil
}

// BillCycle bills every eligible appointment in the cycle's slot and range.
// Per-item failures are recorded and skipped over; a partially billed cycle
// can be re-run to pick up the remainder.
func (s *Service) BillCycle(ctx context.Context, cycleID snowflake.ID) (*billingdomain.BillingRunReport, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != billingdomain.CycleStatusDraft {
		return nil, billingdomain.ErrCycleNotDraft
	}

	var appts []appointmentdomain.Appointment
	if cycle.InsurerID == nil {
		appts, err = s.appointments.ListBillableSelfPay(ctx, cycle.PeriodStart, cycle.PeriodEnd)
	} else {
		appts, err = s.appointments.ListBillableForInsurer(ctx, *cycle.InsurerID, cycle.PeriodStart, cycle.PeriodEnd)
	}
	if err != nil {
		return nil, err
	}

	report := &billingdomain.BillingRunReport{
		CycleID:  cycle.ID,
		Outcomes: make([]billingdomain.ItemOutcome, 0, len(appts)),
	}
	for _, appt := range appts {
		outcome := billingdomain.ItemOutcome{AppointmentID: appt.ID}
		item, err := s.CreateItem(ctx, billingdomain.CreateItemRequest{
			AppointmentID:  appt.ID,
			BillingCycleID: cycle.ID,
		})
		switch {
		case errors.Is(err, billingdomain.ErrDuplicateBillingItem):
			outcome.Skipped = billingdomain.ErrDuplicateBillingItem.Error()
			report.Skipped++
		case err != nil:
			outcome.Error = err.Error()
			report.Failed++
			s.log.Warn("billing run item failed",
				zap.String("billing_cycle_id", cycle.ID.String()),
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err),
			)
		default:
			outcome.BillingItemID = &item.ID
			report.Created++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	s.log.Info("billing run finished",
		zap.String("billing_cycle_id", cycle.ID.String()),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// DeleteCycle removes an empty draft cycle. Cycles with items are permanent
// records and cannot be deleted.
func (s *Service) DeleteCycle(ctx context.Context, cycleID snowflake.ID) error {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if cycle.Status != billingdomain.CycleStatusDraft {
		return billingdomain.ErrCycleNotDraft
	}
	totals, err := s.repo.SumTotals(ctx, cycle.ID)
	if err != nil {
		return err
	}
	if totals.ItemCount > 0 {
		return billingdomain.ErrCycleHasItems
	}
	return s.repo.DeleteCycle(ctx, cycle.ID)
}
