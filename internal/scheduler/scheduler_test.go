package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	billingrepo "github.com/praxisuite/therabill/internal/billing/repository"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	catalogrepo "github.com/praxisuite/therabill/internal/catalog/repository"
	catalogservice "github.com/praxisuite/therabill/internal/catalog/service"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	claimsrepo "github.com/praxisuite/therabill/internal/claims/repository"
	claimsservice "github.com/praxisuite/therabill/internal/claims/service"
	"github.com/praxisuite/therabill/internal/clock"
	"github.com/praxisuite/therabill/internal/config"
	patientrepo "github.com/praxisuite/therabill/internal/patient/repository"
	"github.com/praxisuite/therabill/internal/providers/pdf"
	"github.com/praxisuite/therabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newScheduler(t *testing.T) (*Scheduler, *gorm.DB, *snowflake.Node, *clock.FakeClock, *observer.ObservedLogs) {
	t.Helper()

	conn, err := db.NewTest()
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(
		&catalogdomain.Treatment{},
		&catalogdomain.InsurerGroup{},
		&catalogdomain.Insurer{},
		&catalogdomain.PricePeriod{},
		&billingdomain.BillingCycle{},
		&billingdomain.BillingItem{},
		&claimsdomain.InsurerClaim{},
		&claimsdomain.PatientCopayInvoice{},
		&claimsdomain.PrivatePatientInvoice{},
	))

	node, _ := snowflake.NewNode(1)
	fakeClock := clock.NewFakeClock(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	catalogSvc := catalogservice.NewService(catalogservice.ServiceParam{
		DB:         conn,
		Log:        log,
		GenID:      node,
		Clock:      fakeClock,
		Repository: catalogrepo.NewRepository(conn),
	})
	claimsSvc := claimsservice.NewService(claimsservice.ServiceParam{
		DB:         conn,
		Log:        log,
		GenID:      node,
		Clock:      fakeClock,
		Cfg:        config.BillingConfig{InvoiceDueDays: 30},
		Repository: claimsrepo.NewRepository(conn),
		Cycles:     billingrepo.NewRepository(conn),
		Patients:   patientrepo.NewRepository(conn),
		Catalog:    catalogrepo.NewRepository(conn),
		PDF:        pdf.New(),
	})

	sched, err := New(Params{
		Log:        log,
		Clock:      fakeClock,
		CatalogSvc: catalogSvc,
		ClaimsSvc:  claimsSvc,
	}, time.Minute)
	assert.NoError(t, err)

	return sched, conn, node, fakeClock, logs
}

func TestRunOnce_CleanState(t *testing.T) {
	sched, _, _, _, logs := newScheduler(t)

	sched.RunOnce(context.Background())
	assert.Empty(t, logs.FilterMessage("price period overlap").All())
	assert.Empty(t, logs.FilterMessage("invoice overdue").All())
}

func TestRunOnce_ReportsOverlaps(t *testing.T) {
	sched, conn, node, _, logs := newScheduler(t)

	treatmentID := node.Generate()
	groupID := node.Generate()
	for _, from := range []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		period := catalogdomain.PricePeriod{
			ID:          node.Generate(),
			TreatmentID: treatmentID, InsurerGroupID: groupID,
			InsurerAmountCents: 2612, PatientAmountCents: 500,
			ValidFrom: from, ValidUntil: catalogdomain.OpenEndedUntil,
		}
		assert.NoError(t, conn.Create(&period).Error)
	}

	sched.RunOnce(context.Background())
	assert.Len(t, logs.FilterMessage("price period overlap").All(), 1)
}

func TestRunOnce_ReportsOverdueInvoices(t *testing.T) {
	sched, conn, node, fakeClock, logs := newScheduler(t)

	inv := claimsdomain.PrivatePatientInvoice{
		ID:             node.Generate(),
		BillingCycleID: node.Generate(),
		PatientID:      node.Generate(),
		InvoiceNumber:  "INV-TEST",
		AmountCents:    4500,
		Status:         claimsdomain.StatusSent,
		DueDate:        time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, conn.Create(&inv).Error)

	// Not yet due.
	sched.RunOnce(context.Background())
	assert.Empty(t, logs.FilterMessage("invoice overdue").All())

	fakeClock.Advance(20 * 24 * time.Hour)
	sched.RunOnce(context.Background())
	assert.Len(t, logs.FilterMessage("invoice overdue").All(), 1)
}
