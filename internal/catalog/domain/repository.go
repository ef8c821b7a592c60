package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository

	CreateTreatment(ctx context.Context, t *Treatment) error
	FindTreatment(ctx context.Context, id snowflake.ID) (*Treatment, error)
	ListTreatments(ctx context.Context) ([]Treatment, error)

	CreateGroup(ctx context.Context, g *InsurerGroup) error
	FindGroup(ctx context.Context, id snowflake.ID) (*InsurerGroup, error)
	ListGroups(ctx context.Context) ([]InsurerGroup, error)

	CreateInsurer(ctx context.Context, i *Insurer) error
	FindInsurer(ctx context.Context, id snowflake.ID) (*Insurer, error)
	ListInsurers(ctx context.Context) ([]Insurer, error)

	CreatePeriod(ctx context.Context, p *PricePeriod) error
	FindPeriod(ctx context.Context, id snowflake.ID) (*PricePeriod, error)
	// FindPeriodCovering returns the period containing the date, preferring
	// the most recently created one when stored data accidentally overlaps.
	FindPeriodCovering(ctx context.Context, treatmentID, groupID snowflake.ID, on time.Time) (*PricePeriod, error)
	FindOverlapping(ctx context.Context, treatmentID, groupID snowflake.ID, from, until time.Time) ([]PricePeriod, error)
	ListPeriods(ctx context.Context, treatmentID, groupID snowflake.ID) ([]PricePeriod, error)
	AllPeriods(ctx context.Context) ([]PricePeriod, error)
	ShortenPeriod(ctx context.Context, id snowflake.ID, until, now time.Time) error
}
