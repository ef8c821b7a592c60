// Package scheduler runs the periodic maintenance jobs: the price period
// overlap audit and the overdue invoice sweep. Both jobs only observe and
// report; mutations stay with the services.
package scheduler

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	"github.com/praxisuite/therabill/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler misconfigured")

const defaultInterval = time.Hour

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	CatalogSvc catalogdomain.Service
	ClaimsSvc  claimsdomain.Service
}

type Scheduler struct {
	log        *zap.Logger
	clock      clock.Clock
	interval   time.Duration
	catalogSvc catalogdomain.Service
	claimsSvc  claimsdomain.Service
}

func New(p Params, interval time.Duration) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.CatalogSvc == nil || p.ClaimsSvc == nil {
		return nil, ErrInvalidConfig
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		clock:      p.Clock,
		interval:   interval,
		catalogSvc: p.CatalogSvc,
		claimsSvc:  p.ClaimsSvc,
	}, nil
}

// RunForever ticks until the context is cancelled. An immediate first run
// surfaces problems at startup instead of one interval later.
func (s *Scheduler) RunForever(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes every job, continuing past failures.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.auditPricePeriods(ctx)
	s.sweepOverdueInvoices(ctx)
}

func (s *Scheduler) auditPricePeriods(ctx context.Context) {
	violations, err := s.catalogSvc.ValidateAll(ctx)
	if err != nil {
		s.log.Error("price period audit failed", zap.Error(err))
		return
	}
	if len(violations) == 0 {
		s.log.Debug("price period audit clean")
		return
	}
	for _, v := range violations {
		s.log.Warn("price period overlap",
			zap.String("treatment_id", v.TreatmentID.String()),
			zap.String("insurer_group_id", v.InsurerGroupID.String()),
			zap.String("period_id", v.PeriodID.String()),
			zap.String("other_period_id", v.OtherPeriodID.String()),
		)
	}
}

func (s *Scheduler) sweepOverdueInvoices(ctx context.Context) {
	overdue, err := s.claimsSvc.OverdueInvoices(ctx)
	if err != nil {
		s.log.Error("overdue invoice sweep failed", zap.Error(err))
		return
	}
	if len(overdue) == 0 {
		return
	}

	var totalCents int64
	for _, inv := range overdue {
		totalCents += inv.AmountCents
		s.log.Warn("invoice overdue",
			zap.String("kind", string(inv.Kind)),
			zap.String("invoice_id", inv.ID.String()),
			zap.String("patient_id", inv.PatientID.String()),
			zap.Int64("amount_cents", inv.AmountCents),
			zap.Time("due_date", inv.DueDate),
		)
	}
	s.log.Info("overdue invoice sweep finished",
		zap.Int("count", len(overdue)),
		zap.Int64("total_cents", totalCents),
	)
}
