package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	billingrepo "github.com/praxisuite/therabill/internal/billing/repository"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	catalogrepo "github.com/praxisuite/therabill/internal/catalog/repository"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	claimsrepo "github.com/praxisuite/therabill/internal/claims/repository"
	"github.com/praxisuite/therabill/internal/clock"
	"github.com/praxisuite/therabill/internal/config"
	patientdomain "github.com/praxisuite/therabill/internal/patient/domain"
	patientrepo "github.com/praxisuite/therabill/internal/patient/repository"
	"github.com/praxisuite/therabill/internal/providers/pdf"
	"github.com/praxisuite/therabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   claimsdomain.Service

	cycle    billingdomain.BillingCycle
	insurerA snowflake.ID
	insurerB snowflake.ID
	patientA snowflake.ID
	patientB snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(
		&catalogdomain.Treatment{},
		&patientdomain.Patient{},
		&billingdomain.BillingCycle{},
		&billingdomain.BillingItem{},
		&claimsdomain.InsurerClaim{},
		&claimsdomain.PatientCopayInvoice{},
		&claimsdomain.PrivatePatientInvoice{},
	))

	node, _ := snowflake.NewNode(1)
	fakeClock := clock.NewFakeClock(time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Cfg: config.BillingConfig{
			CopayQuarterlyCapCents: 6000,
			CopayYearlyCapCents:    24000,
			InvoiceDueDays:         30,
		},
		Repository: claimsrepo.NewRepository(conn),
		Cycles:     billingrepo.NewRepository(conn),
		Patients:   patientrepo.NewRepository(conn),
		Catalog:    catalogrepo.NewRepository(conn),
		PDF:        pdf.New(),
	})

	f := &fixture{db: conn, node: node, clock: fakeClock, svc: svc}
	f.seed(t)
	return f
}

// seed builds one ready cycle with statutory items for two insurers and two
// patients, plus self-pay items for one patient.
func (f *fixture) seed(t *testing.T) {
	t.Helper()

	f.insurerA = f.node.Generate()
	f.insurerB = f.node.Generate()
	f.patientA = f.node.Generate()
	f.patientB = f.node.Generate()

	assert.NoError(t, f.db.Create(&patientdomain.Patient{
		ID: f.patientA, FirstName: "Erika", LastName: "Mustermann",
	}).Error)

	f.cycle = billingdomain.BillingCycle{
		ID:          f.node.Generate(),
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:      billingdomain.CycleStatusReady,
	}
	assert.NoError(t, f.db.Create(&f.cycle).Error)

	type row struct {
		insurer   *snowflake.ID
		patient   snowflake.ID
		statutory bool
		insCents  int64
		copCents  int64
	}
	rows := []row{
		{&f.insurerA, f.patientA, true, 2612, 500},
		{&f.insurerA, f.patientA, true, 2612, 500},
		{&f.insurerA, f.patientB, true, 1800, 0},
		{&f.insurerB, f.patientB, true, 3000, 300},
		{nil, f.patientA, false, 0, 4500},
	}
	for i, r := range rows {
		item := billingdomain.BillingItem{
			ID:                 f.node.Generate(),
			BillingCycleID:     f.cycle.ID,
			AppointmentID:      f.node.Generate(),
			PatientID:          r.patient,
			TreatmentID:        f.node.Generate(),
			InsurerID:          r.insurer,
			Statutory:          r.statutory,
			InsurerAmountCents: r.insCents,
			PatientCopayCents:  r.copCents,
			ServiceDate:        time.Date(2025, 3, 3+i, 0, 0, 0, 0, time.UTC),
		}
		assert.NoError(t, f.db.Create(&item).Error)
	}
}

func TestGenerateClaims_OnePerInsurer(t *testing.T) {
	f := newFixture(t)

	results, err := f.svc.GenerateClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, results, 2)

	byInsurer := map[snowflake.ID]claimsdomain.ClaimResult{}
	for _, r := range results {
		assert.NotNil(t, r.ClaimID)
		assert.NotEmpty(t, r.ClaimNumber)
		byInsurer[r.InsurerID] = r
	}
	assert.Equal(t, int64(2612+2612+1800), byInsurer[f.insurerA].AmountCents)
	assert.Equal(t, int64(3000), byInsurer[f.insurerB].AmountCents)

	// Self-pay items never produce a claim.
	claims, err := f.svc.ListClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestGenerateClaims_RerunSkips(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)

	results, err := f.svc.GenerateClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Nil(t, r.ClaimID)
		assert.Equal(t, "claim_exists", r.Skipped)
	}

	claims, err := f.svc.ListClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestGenerateClaims_DraftCycleRejected(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.db.Exec(
		`UPDATE billing_cycles SET status = ? WHERE id = ?`,
		billingdomain.CycleStatusDraft, f.cycle.ID,
	).Error)

	_, err := f.svc.GenerateClaims(context.Background(), f.cycle.ID)
	assert.ErrorIs(t, err, claimsdomain.ErrCycleNotReady)
}

func TestGenerateCopayInvoices_NonzeroPerPatient(t *testing.T) {
	f := newFixture(t)

	claimResults, err := f.svc.GenerateClaims(context.Background(), f.cycle.ID)
	assert.NoError(t, err)

	var claimA snowflake.ID
	for _, r := range claimResults {
		if r.InsurerID == f.insurerA {
			claimA = *r.ClaimID
		}
	}

	results, err := f.svc.GenerateCopayInvoices(context.Background(), claimA)
	assert.NoError(t, err)
	// Patient B's copay under insurer A sums to zero, so only patient A is
	// invoiced.
	assert.Len(t, results, 1)
	assert.Equal(t, f.patientA, results[0].PatientID)
	assert.Equal(t, int64(1000), results[0].AmountCents)

	invs, err := f.svc.ListCopayInvoices(context.Background(), claimA)
	assert.NoError(t, err)
	assert.Len(t, invs, 1)
	assert.Equal(t, claimsdomain.StatusCreated, invs[0].Status)
	assert.True(t, invs[0].DueDate.Equal(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)))

	// Idempotent per (claim, patient).
	results, err = f.svc.GenerateCopayInvoices(context.Background(), claimA)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "invoice_exists", results[0].Skipped)
}

func TestGeneratePrivateInvoices(t *testing.T) {
	f := newFixture(t)

	results, err := f.svc.GeneratePrivateInvoices(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, f.patientA, results[0].PatientID)
	assert.Equal(t, int64(4500), results[0].AmountCents)

	results, err = f.svc.GeneratePrivateInvoices(context.Background(), f.cycle.ID)
	assert.NoError(t, err)
	assert.Equal(t, "invoice_exists", results[0].Skipped)
}

func TestGeneratePrivateInvoices_IncludesInsurerShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Private tariffs never produce an insurer claim, so the invoice must
	// carry the full item price, not just the copay.
	item := billingdomain.BillingItem{
		ID:                 f.node.Generate(),
		BillingCycleID:     f.cycle.ID,
		AppointmentID:      f.node.Generate(),
		PatientID:          f.patientB,
		TreatmentID:        f.node.Generate(),
		InsurerID:          &f.insurerB,
		Statutory:          false,
		InsurerAmountCents: 10000,
		PatientCopayCents:  2000,
		ServiceDate:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, f.db.Create(&item).Error)

	claims, err := f.svc.GenerateClaims(ctx, f.cycle.ID)
	assert.NoError(t, err)
	for _, c := range claims {
		if c.InsurerID == f.insurerB {
			assert.Equal(t, int64(3000), c.AmountCents)
		}
	}

	results, err := f.svc.GeneratePrivateInvoices(ctx, f.cycle.ID)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	byPatient := map[snowflake.ID]int64{}
	for _, r := range results {
		byPatient[r.PatientID] = r.AmountCents
	}
	assert.Equal(t, int64(4500), byPatient[f.patientA])
	assert.Equal(t, int64(12000), byPatient[f.patientB])
}

func TestMarkInvoicePaid_Machine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.svc.GeneratePrivateInvoices(ctx, f.cycle.ID)
	assert.NoError(t, err)
	invID := *results[0].InvoiceID

	assert.NoError(t, f.svc.MarkInvoiceSent(ctx, claimsdomain.InvoiceKindPrivate, invID))

	paidAt := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, f.svc.MarkInvoicePaid(ctx, claimsdomain.InvoiceKindPrivate, invID, 4500, paidAt))

	invs, err := f.svc.ListPrivateInvoices(ctx, f.cycle.ID)
	assert.NoError(t, err)
	assert.Equal(t, claimsdomain.StatusPaid, invs[0].Status)
	assert.Equal(t, int64(4500), *invs[0].PaidAmountCents)
	assert.True(t, invs[0].PaidAt.Equal(paidAt))

	// Terminal states reject further transitions.
	err = f.svc.MarkInvoicePaid(ctx, claimsdomain.InvoiceKindPrivate, invID, 4500, paidAt)
	assert.ErrorIs(t, err, claimsdomain.ErrInvalidTransition)
	err = f.svc.MarkInvoiceSent(ctx, claimsdomain.InvoiceKindPrivate, invID)
	assert.ErrorIs(t, err, claimsdomain.ErrInvalidTransition)
}

func TestMarkInvoicePaid_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.MarkInvoicePaid(ctx, claimsdomain.InvoiceKindPrivate, f.node.Generate(), 0, time.Now())
	assert.ErrorIs(t, err, claimsdomain.ErrInvalidAmount)

	err = f.svc.MarkInvoicePaid(ctx, claimsdomain.InvoiceKindPrivate, f.node.Generate(), 100, time.Now())
	assert.ErrorIs(t, err, claimsdomain.ErrNotFound)

	err = f.svc.MarkInvoicePaid(ctx, "bogus", f.node.Generate(), 100, time.Now())
	assert.ErrorIs(t, err, claimsdomain.ErrInvalidInvoiceKind)
}

func TestOverdueInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GeneratePrivateInvoices(ctx, f.cycle.ID)
	assert.NoError(t, err)

	overdue, err := f.svc.OverdueInvoices(ctx)
	assert.NoError(t, err)
	assert.Empty(t, overdue)

	f.clock.Advance(31 * 24 * time.Hour)
	overdue, err = f.svc.OverdueInvoices(ctx)
	assert.NoError(t, err)
	assert.Len(t, overdue, 1)
	assert.Equal(t, claimsdomain.InvoiceKindPrivate, overdue[0].Kind)
}

func TestRenderPrivateInvoicePDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.svc.GeneratePrivateInvoices(ctx, f.cycle.ID)
	assert.NoError(t, err)

	doc, err := f.svc.RenderPrivateInvoicePDF(ctx, *results[0].InvoiceID)
	assert.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestFormatEUR(t *testing.T) {
	assert.Equal(t, "26.12 EUR", FormatEUR(2612))
	assert.Equal(t, "0.05 EUR", FormatEUR(5))
	assert.Equal(t, "-1.00 EUR", FormatEUR(-100))
}
