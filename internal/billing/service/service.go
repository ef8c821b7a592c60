package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	appointmentdomain "github.com/praxisuite/therabill/internal/appointment/domain"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"github.com/praxisuite/therabill/internal/clock"
	copaymentdomain "github.com/praxisuite/therabill/internal/copayment/domain"
	"github.com/praxisuite/therabill/internal/locking"
	"github.com/praxisuite/therabill/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repository   billingdomain.Repository
	Appointments appointmentdomain.Repository
	Catalog      catalogdomain.Repository
	Prices       catalogdomain.Resolver
	Copay        copaymentdomain.Calculator
	Locker       locking.Locker
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         billingdomain.Repository
	appointments appointmentdomain.Repository
	catalog      catalogdomain.Repository
	prices       catalogdomain.Resolver
	copay        copaymentdomain.Calculator
	locker       locking.Locker
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repository,
		appointments: p.Appointments,
		catalog:      p.Catalog,
		prices:       p.Prices,
		copay:        p.Copay,
		locker:       p.Locker,
	}
}

func (s *Service) GetCycle(ctx context.Context, cycleID snowflake.ID) (*billingdomain.BillingCycle, error) {
	cycle, err := s.repo.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, billingdomain.ErrNotFound
	}
	return cycle, nil
}

func (s *Service) ListCycles(ctx context.Context, opts ...option.QueryOption) ([]billingdomain.BillingCycle, error) {
	return s.repo.ListCycles(ctx, opts...)
}

func (s *Service) ListItems(ctx context.Context, cycleID snowflake.ID, opts ...option.QueryOption) ([]billingdomain.BillingItem, error) {
	if _, err := s.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, cycleID, opts...)
}
