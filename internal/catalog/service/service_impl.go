package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"github.com/praxisuite/therabill/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repository catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *Service) CreateTreatment(ctx context.Context, req catalogdomain.CreateTreatmentRequest) (*catalogdomain.Treatment, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	if req.SelfPayPriceCents != nil && *req.SelfPayPriceCents <= 0 {
		return nil, catalogdomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	treatment := &catalogdomain.Treatment{
		ID:                s.genID.Generate(),
		Name:              strings.TrimSpace(req.Name),
		Category:          strings.TrimSpace(req.Category),
		DurationMinutes:   req.DurationMinutes,
		IsSelfPay:         req.IsSelfPay,
		SelfPayPriceCents: req.SelfPayPriceCents,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateTreatment(ctx, treatment); err != nil {
		return nil, err
	}
	return treatment, nil
}

func (s *Service) ListTreatments(ctx context.Context) ([]catalogdomain.Treatment, error) {
	return s.repo.ListTreatments(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, req catalogdomain.CreateGroupRequest) (*catalogdomain.InsurerGroup, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	if req.Kind != catalogdomain.GroupKindStatutory && req.Kind != catalogdomain.GroupKindPrivate {
		return nil, catalogdomain.ErrInvalidGroupKind
	}

	now := s.clock.Now()
	group := &catalogdomain.InsurerGroup{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Kind:      req.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]catalogdomain.InsurerGroup, error) {
	return s.repo.ListGroups(ctx)
}

func (s *Service) CreateInsurer(ctx context.Context, req catalogdomain.CreateInsurerRequest) (*catalogdomain.Insurer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	group, err := s.repo.FindGroup(ctx, req.InsurerGroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, catalogdomain.ErrNotFound
	}

	now := s.clock.Now()
	insurer := &catalogdomain.Insurer{
		ID:             s.genID.Generate(),
		Name:           strings.TrimSpace(req.Name),
		InsurerGroupID: group.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateInsurer(ctx, insurer); err != nil {
		return nil, err
	}
	return insurer, nil
}

func (s *Service) ListInsurers(ctx context.Context) ([]catalogdomain.Insurer, error) {
	return s.repo.ListInsurers(ctx)
}

// Resolve returns the price period covering the date. When stored data
// accidentally overlaps (bulk loads bypassing validation), the most recently
// created period wins so resolution stays deterministic.
func (s *Service) Resolve(ctx context.Context, treatmentID, groupID snowflake.ID, on time.Time) (*catalogdomain.PricePeriod, error) {
	period, err := s.repo.FindPeriodCovering(ctx, treatmentID, groupID, on)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, catalogdomain.ErrNoPriceFound
	}
	return period, nil
}

func (s *Service) CreatePeriod(ctx context.Context, req catalogdomain.CreatePeriodRequest) (*catalogdomain.PricePeriod, error) {
	if req.InsurerAmountCents < 0 || req.PatientAmountCents < 0 {
		return nil, catalogdomain.ErrInvalidAmount
	}
	if req.ValidFrom.IsZero() {
		return nil, catalogdomain.ErrInvalidPeriodRange
	}

	until := catalogdomain.OpenEndedUntil
	if req.ValidUntil != nil {
		until = req.ValidUntil.UTC()
	}
	from := req.ValidFrom.UTC()
	if until.Before(from) {
		return nil, catalogdomain.ErrInvalidPeriodRange
	}

	treatment, err := s.repo.FindTreatment(ctx, req.TreatmentID)
	if err != nil {
		return nil, err
	}
	if treatment == nil {
		return nil, catalogdomain.ErrNotFound
	}
	group, err := s.repo.FindGroup(ctx, req.InsurerGroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, catalogdomain.ErrNotFound
	}

	now := s.clock.Now()
	period := &catalogdomain.PricePeriod{
		ID:                 s.genID.Generate(),
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: req.InsurerAmountCents,
		PatientAmountCents: req.PatientAmountCents,
		ValidFrom:          from,
		ValidUntil:         until,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		existing, err := repo.FindOverlapping(ctx, period.TreatmentID, period.InsurerGroupID, from, until)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return catalogdomain.ErrPricePeriodOverlap
		}
		return repo.CreatePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("price period created",
		zap.String("treatment_id", period.TreatmentID.String()),
		zap.String("insurer_group_id", period.InsurerGroupID.String()),
		zap.Time("valid_from", period.ValidFrom),
		zap.Time("valid_until", period.ValidUntil),
	)
	return period, nil
}

// ClosePeriod shortens an open-ended period so a successor can start the day
// after. Bounded periods stay untouched; historical pricing is immutable.
func (s *Service) ClosePeriod(ctx context.Context, periodID snowflake.ID, until time.Time) (*catalogdomain.PricePeriod, error) {
	var closed *catalogdomain.PricePeriod
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		period, err := repo.FindPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if period == nil {
			return catalogdomain.ErrNotFound
		}
		if !period.ValidUntil.Equal(catalogdomain.OpenEndedUntil) {
			return catalogdomain.ErrPeriodNotOpenEnded
		}
		until = until.UTC()
		if until.Before(period.ValidFrom) {
			return catalogdomain.ErrInvalidPeriodRange
		}
		if err := repo.ShortenPeriod(ctx, period.ID, until, s.clock.Now()); err != nil {
			return err
		}
		period.ValidUntil = until
		closed = period
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *Service) ListPeriods(ctx context.Context, treatmentID, groupID snowflake.ID) ([]catalogdomain.PricePeriod, error) {
	return s.repo.ListPeriods(ctx, treatmentID, groupID)
}

// ValidateAll is the administrative consistency sweep. Creation-time
// validation already rejects overlaps, but bulk imports write around the
// service layer; this catches what they introduced.
func (s *Service) ValidateAll(ctx context.Context) ([]catalogdomain.OverlapViolation, error) {
	periods, err := s.repo.AllPeriods(ctx)
	if err != nil {
		return nil, err
	}

	// Periods arrive sorted by (treatment, group, valid_from). Within each
	// pair the period reaching furthest into the future is carried along so
	// overlaps spanning more than one neighbour are reported too.
	violations := []catalogdomain.OverlapViolation{}
	var widest *catalogdomain.PricePeriod
	for i := range periods {
		curr := periods[i]
		if widest == nil || widest.TreatmentID != curr.TreatmentID || widest.InsurerGroupID != curr.InsurerGroupID {
			widest = &periods[i]
			continue
		}
		if widest.Overlaps(curr.ValidFrom, curr.ValidUntil) {
			violations = append(violations, catalogdomain.OverlapViolation{
				TreatmentID:    curr.TreatmentID,
				InsurerGroupID: curr.InsurerGroupID,
				PeriodID:       widest.ID,
				OtherPeriodID:  curr.ID,
			})
		}
		if curr.ValidUntil.After(widest.ValidUntil) {
			widest = &periods[i]
		}
	}

	if len(violations) > 0 {
		s.log.Warn("price period overlap violations found", zap.Int("count", len(violations)))
	}
	return violations, nil
}
