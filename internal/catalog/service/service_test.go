package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	catalogrepo "github.com/praxisuite/therabill/internal/catalog/repository"
	"github.com/praxisuite/therabill/internal/clock"
	"github.com/praxisuite/therabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (catalogdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(
		&catalogdomain.Treatment{},
		&catalogdomain.InsurerGroup{},
		&catalogdomain.Insurer{},
		&catalogdomain.PricePeriod{},
	))

	node, _ := snowflake.NewNode(1)
	svc := NewService(ServiceParam{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		Repository: catalogrepo.NewRepository(conn),
	})
	return svc, conn, node
}

func seedPair(t *testing.T, svc catalogdomain.Service) (catalogdomain.Treatment, catalogdomain.InsurerGroup) {
	t.Helper()
	treatment, err := svc.CreateTreatment(context.Background(), catalogdomain.CreateTreatmentRequest{
		Name:            "Physiotherapie",
		DurationMinutes: 30,
	})
	assert.NoError(t, err)
	group, err := svc.CreateGroup(context.Background(), catalogdomain.CreateGroupRequest{
		Name: "GKV",
		Kind: catalogdomain.GroupKindStatutory,
	})
	assert.NoError(t, err)
	return *treatment, *group
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreatePeriod_RejectsOverlap(t *testing.T) {
	svc, _, _ := newService(t)
	treatment, group := seedPair(t, svc)
	ctx := context.Background()

	until := day(2025, 6, 30)
	_, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2612,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 1, 1),
		ValidUntil:         &until,
	})
	assert.NoError(t, err)

	// Any intersection with the stored period is rejected.
	_, err = svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2700,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 6, 30),
	})
	assert.ErrorIs(t, err, catalogdomain.ErrPricePeriodOverlap)

	// Adjacent but disjoint is fine.
	_, err = svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2700,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 7, 1),
	})
	assert.NoError(t, err)
}

func TestCreatePeriod_OtherPairDoesNotCollide(t *testing.T) {
	svc, _, _ := newService(t)
	treatment, group := seedPair(t, svc)
	otherGroup, err := svc.CreateGroup(context.Background(), catalogdomain.CreateGroupRequest{
		Name: "PKV",
		Kind: catalogdomain.GroupKindPrivate,
	})
	assert.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2612,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 1, 1),
	})
	assert.NoError(t, err)

	// Same range for a different group is a different timeline.
	_, err = svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     otherGroup.ID,
		InsurerAmountCents: 0,
		PatientAmountCents: 9000,
		ValidFrom:          day(2025, 1, 1),
	})
	assert.NoError(t, err)
}

func TestClosePeriod_AllowsSuccessor(t *testing.T) {
	svc, _, _ := newService(t)
	treatment, group := seedPair(t, svc)
	ctx := context.Background()

	open, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2612,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 1, 1),
	})
	assert.NoError(t, err)

	closed, err := svc.ClosePeriod(ctx, open.ID, day(2025, 3, 31))
	assert.NoError(t, err)
	assert.Equal(t, day(2025, 3, 31), closed.ValidUntil)

	// A closed period cannot be closed again.
	_, err = svc.ClosePeriod(ctx, open.ID, day(2025, 2, 28))
	assert.ErrorIs(t, err, catalogdomain.ErrPeriodNotOpenEnded)

	successor, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2700,
		PatientAmountCents: 550,
		ValidFrom:          day(2025, 4, 1),
	})
	assert.NoError(t, err)
	assert.Equal(t, catalogdomain.OpenEndedUntil, successor.ValidUntil)
}

func TestResolve_PicksCoveringPeriod(t *testing.T) {
	svc, _, _ := newService(t)
	treatment, group := seedPair(t, svc)
	ctx := context.Background()

	until := day(2025, 3, 31)
	old, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2612,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 1, 1),
		ValidUntil:         &until,
	})
	assert.NoError(t, err)
	current, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2700,
		PatientAmountCents: 550,
		ValidFrom:          day(2025, 4, 1),
	})
	assert.NoError(t, err)

	got, err := svc.Resolve(ctx, treatment.ID, group.ID, day(2025, 2, 15))
	assert.NoError(t, err)
	assert.Equal(t, old.ID, got.ID)

	got, err = svc.Resolve(ctx, treatment.ID, group.ID, day(2025, 5, 1))
	assert.NoError(t, err)
	assert.Equal(t, current.ID, got.ID)

	_, err = svc.Resolve(ctx, treatment.ID, group.ID, day(2024, 12, 31))
	assert.ErrorIs(t, err, catalogdomain.ErrNoPriceFound)
}

func TestResolve_DeterministicOnStoredOverlap(t *testing.T) {
	svc, conn, node := newService(t)
	treatment, group := seedPair(t, svc)

	// Bulk imports can write around creation-time validation; resolution
	// must stay deterministic and prefer the newest period.
	first := catalogdomain.PricePeriod{
		ID: node.Generate(), TreatmentID: treatment.ID, InsurerGroupID: group.ID,
		InsurerAmountCents: 2612, PatientAmountCents: 500,
		ValidFrom: day(2025, 1, 1), ValidUntil: catalogdomain.OpenEndedUntil,
	}
	second := catalogdomain.PricePeriod{
		ID: node.Generate(), TreatmentID: treatment.ID, InsurerGroupID: group.ID,
		InsurerAmountCents: 2700, PatientAmountCents: 550,
		ValidFrom: day(2025, 1, 1), ValidUntil: catalogdomain.OpenEndedUntil,
	}
	assert.NoError(t, conn.Create(&first).Error)
	assert.NoError(t, conn.Create(&second).Error)

	got, err := svc.Resolve(context.Background(), treatment.ID, group.ID, day(2025, 2, 1))
	assert.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestValidateAll_FindsImportedOverlaps(t *testing.T) {
	svc, conn, node := newService(t)
	treatment, group := seedPair(t, svc)

	periods := []catalogdomain.PricePeriod{
		{
			ID: node.Generate(), TreatmentID: treatment.ID, InsurerGroupID: group.ID,
			InsurerAmountCents: 2612, PatientAmountCents: 500,
			ValidFrom: day(2025, 1, 1), ValidUntil: day(2025, 12, 31),
		},
		{
			ID: node.Generate(), TreatmentID: treatment.ID, InsurerGroupID: group.ID,
			InsurerAmountCents: 2700, PatientAmountCents: 550,
			ValidFrom: day(2025, 3, 1), ValidUntil: day(2025, 3, 31),
		},
		{
			ID: node.Generate(), TreatmentID: treatment.ID, InsurerGroupID: group.ID,
			InsurerAmountCents: 2800, PatientAmountCents: 600,
			ValidFrom: day(2025, 6, 1), ValidUntil: day(2025, 6, 30),
		},
	}
	for i := range periods {
		assert.NoError(t, conn.Create(&periods[i]).Error)
	}

	violations, err := svc.ValidateAll(context.Background())
	assert.NoError(t, err)
	// The year-long period overlaps both narrow ones, not just its direct
	// neighbour.
	assert.Len(t, violations, 2)
}

func TestValidateAll_CleanCatalog(t *testing.T) {
	svc, _, _ := newService(t)
	treatment, group := seedPair(t, svc)
	ctx := context.Background()

	until := day(2025, 3, 31)
	_, err := svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2612,
		PatientAmountCents: 500,
		ValidFrom:          day(2025, 1, 1),
		ValidUntil:         &until,
	})
	assert.NoError(t, err)
	_, err = svc.CreatePeriod(ctx, catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatment.ID,
		InsurerGroupID:     group.ID,
		InsurerAmountCents: 2700,
		PatientAmountCents: 550,
		ValidFrom:          day(2025, 4, 1),
	})
	assert.NoError(t, err)

	violations, err := svc.ValidateAll(ctx)
	assert.NoError(t, err)
	assert.Empty(t, violations)
}
