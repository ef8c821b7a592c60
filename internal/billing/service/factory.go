package service

import (
	"context"
	"fmt"

	appointmentdomain "github.com/praxisuite/therabill/internal/appointment/domain"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateItem turns an eligible appointment into exactly one billing item in
// the cycle. Amounts are resolved against the appointment date and frozen on
// the item. The (appointment, cycle) unique index is the final arbiter
// against concurrent duplicates; the pre-check only gives a friendlier
// fast path.
func (s *Service) CreateItem(ctx context.Context, req billingdomain.CreateItemRequest) (*billingdomain.BillingItem, error) {
	cycle, err := s.GetCycle(ctx, req.BillingCycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status != billingdomain.CycleStatusDraft {
		return nil, billingdomain.ErrCycleNotDraft
	}

	appt, err := s.appointments.FindByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, billingdomain.ErrNotFound
	}
	if !appt.Billable() {
		return nil, billingdomain.ErrNotEligible
	}
	if appt.Date.Before(cycle.PeriodStart) || appt.Date.After(cycle.PeriodEnd) {
		return nil, billingdomain.ErrCycleMismatch
	}
	if err := matchSlot(cycle, appt); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, appt.ID, cycle.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, billingdomain.ErrDuplicateBillingItem
	}

	item := &billingdomain.BillingItem{
		ID:             s.genID.Generate(),
		BillingCycleID: cycle.ID,
		AppointmentID:  appt.ID,
		PatientID:      appt.PatientID,
		TreatmentID:    appt.TreatmentID,
		PrescriptionID: appt.PrescriptionID,
		InsurerID:      appt.InsurerID,
		ServiceDate:    appt.Date,
		CreatedAt:      s.clock.Now(),
	}

	if appt.IsSelfPay {
		if err := s.priceSelfPay(ctx, appt, item); err != nil {
			return nil, err
		}
		return s.persistItem(ctx, cycle, appt, item)
	}

	statutory, err := s.priceInsured(ctx, appt, item)
	if err != nil {
		return nil, err
	}
	if !statutory {
		return s.persistItem(ctx, cycle, appt, item)
	}

	// Statutory copays are clamped against what the patient already paid
	// this quarter and year. The read-clamp-write must be serialized per
	// patient or two concurrent runs could overshoot the ceiling.
	release, err := s.locker.Acquire(ctx, fmt.Sprintf("copay:patient:%d", appt.PatientID))
	if err != nil {
		return nil, err
	}
	defer release()

	clamped, err := s.copay.ComputeCopay(ctx, appt.PatientID, item.PatientCopayCents, appt.Date)
	if err != nil {
		return nil, err
	}
	item.PatientCopayCents = clamped

	// The clamp may zero the copay. An item with no insurer share left
	// either would bill nothing to nobody; reject it.
	if item.InsurerAmountCents == 0 && item.PatientCopayCents == 0 {
		return nil, billingdomain.ErrZeroAmounts
	}

	return s.persistItem(ctx, cycle, appt, item)
}

// matchSlot keeps insurer cycles and the self-pay slot strictly separated.
func matchSlot(cycle *billingdomain.BillingCycle, appt *appointmentdomain.Appointment) error {
	if cycle.InsurerID == nil {
		if !appt.IsSelfPay {
			return billingdomain.ErrCycleMismatch
		}
		return nil
	}
	if appt.InsurerID == nil {
		return billingdomain.ErrMissingInsurer
	}
	if *appt.InsurerID != *cycle.InsurerID {
		return billingdomain.ErrCycleMismatch
	}
	return nil
}

// priceSelfPay bills the treatment's fixed self-pay price entirely to the
// patient. No price period, no insurer share, no statutory ceiling.
func (s *Service) priceSelfPay(ctx context.Context, appt *appointmentdomain.Appointment, item *billingdomain.BillingItem) error {
	treatment, err := s.catalog.FindTreatment(ctx, appt.TreatmentID)
	if err != nil {
		return err
	}
	if treatment == nil {
		return billingdomain.ErrNotFound
	}
	if treatment.SelfPayPriceCents == nil || *treatment.SelfPayPriceCents <= 0 {
		return billingdomain.ErrSelfPayPriceMissing
	}

	item.InsurerAmountCents = 0
	item.PatientCopayCents = *treatment.SelfPayPriceCents
	item.Statutory = false
	return nil
}

// priceInsured resolves the price period for the appointment date through
// the insurer's group and reports whether the tariff is statutory.
func (s *Service) priceInsured(ctx context.Context, appt *appointmentdomain.Appointment, item *billingdomain.BillingItem) (bool, error) {
	insurer, err := s.catalog.FindInsurer(ctx, *appt.InsurerID)
	if err != nil {
		return false, err
	}
	if insurer == nil {
		return false, billingdomain.ErrNotFound
	}
	group, err := s.catalog.FindGroup(ctx, insurer.InsurerGroupID)
	if err != nil {
		return false, err
	}
	if group == nil {
		return false, billingdomain.ErrNotFound
	}

	period, err := s.prices.Resolve(ctx, appt.TreatmentID, group.ID, appt.Date)
	if err != nil {
		return false, err
	}
	if period.InsurerAmountCents == 0 && period.PatientAmountCents == 0 {
		return false, billingdomain.ErrZeroAmounts
	}

	item.PricePeriodID = &period.ID
	item.InsurerAmountCents = period.InsurerAmountCents
	item.PatientCopayCents = period.PatientAmountCents
	item.Statutory = group.IsStatutory()
	return item.Statutory, nil
}

// persistItem writes the item, flips the appointment to billed and recomputes
// cycle totals as one transaction. A unique index violation on
// (appointment, cycle) means another writer won the race.
func (s *Service) persistItem(ctx context.Context, cycle *billingdomain.BillingCycle, appt *appointmentdomain.Appointment, item *billingdomain.BillingItem) (*billingdomain.BillingItem, error) {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return billingdomain.ErrDuplicateBillingItem
			}
			return err
		}
		if err := s.appointments.WithTrx(tx).MarkBilled(ctx, appt.ID, now); err != nil {
			return err
		}
		totals, err := repo.SumTotals(ctx, cycle.ID)
		if err != nil {
			return err
		}
		return repo.UpdateCycleTotals(ctx, cycle.ID, totals, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("billing item created",
		zap.String("billing_cycle_id", cycle.ID.String()),
		zap.String("appointment_id", appt.ID.String()),
		zap.Int64("insurer_amount_cents", item.InsurerAmountCents),
		zap.Int64("patient_copay_cents", item.PatientCopayCents),
		zap.Bool("statutory", item.Statutory),
	)
	return item, nil
}
