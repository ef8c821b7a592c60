package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/internal/config"
	"github.com/praxisuite/therabill/internal/copayment/domain"
	"github.com/praxisuite/therabill/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCalculator(t *testing.T) (domain.Calculator, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	assert.NoError(t, err)
	assert.NoError(t, conn.AutoMigrate(&billingdomain.BillingItem{}))

	node, _ := snowflake.NewNode(1)
	calc := NewCalculator(ServiceParam{
		DB:  conn,
		Log: zap.NewNop(),
		Cfg: config.BillingConfig{
			CopayQuarterlyCapCents: 6000,
			CopayYearlyCapCents:    24000,
		},
	})
	return calc, conn, node
}

func seedCopay(t *testing.T, conn *gorm.DB, node *snowflake.Node, patientID snowflake.ID, copayCents int64, statutory bool, on time.Time) {
	t.Helper()
	item := billingdomain.BillingItem{
		ID:                 node.Generate(),
		BillingCycleID:     node.Generate(),
		AppointmentID:      node.Generate(),
		PatientID:          patientID,
		TreatmentID:        node.Generate(),
		Statutory:          statutory,
		InsurerAmountCents: 1000,
		PatientCopayCents:  copayCents,
		ServiceDate:        on,
	}
	assert.NoError(t, conn.Create(&item).Error)
}

func TestQuarterBounds(t *testing.T) {
	start, end := domain.QuarterBounds(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.March, end.Month())
	assert.Equal(t, 31, end.Day())

	start, _ = domain.QuarterBounds(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestRemainingAllowance_UnusedCaps(t *testing.T) {
	calc, _, node := newCalculator(t)

	allowance, err := calc.RemainingAllowance(context.Background(), node.Generate(), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, int64(6000), allowance.QuarterRemainingCents)
	assert.Equal(t, int64(24000), allowance.YearRemainingCents)
}

func TestRemainingAllowance_CountsOnlyStatutoryInWindow(t *testing.T) {
	calc, conn, node := newCalculator(t)
	patientID := node.Generate()
	on := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	seedCopay(t, conn, node, patientID, 1500, true, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	// Self-pay and private copays never consume the statutory ceilings.
	seedCopay(t, conn, node, patientID, 4500, false, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC))
	// Previous year is outside both windows.
	seedCopay(t, conn, node, patientID, 5000, true, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
	// Another patient's copays are irrelevant.
	seedCopay(t, conn, node, node.Generate(), 5000, true, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC))

	allowance, err := calc.RemainingAllowance(context.Background(), patientID, on)
	assert.NoError(t, err)
	assert.Equal(t, int64(4500), allowance.QuarterRemainingCents)
	assert.Equal(t, int64(22500), allowance.YearRemainingCents)
}

func TestRemainingAllowance_QuarterResetsYearDoesNot(t *testing.T) {
	calc, conn, node := newCalculator(t)
	patientID := node.Generate()

	seedCopay(t, conn, node, patientID, 6000, true, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	q1, err := calc.RemainingAllowance(context.Background(), patientID, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), q1.QuarterRemainingCents)

	q2, err := calc.RemainingAllowance(context.Background(), patientID, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, int64(6000), q2.QuarterRemainingCents)
	assert.Equal(t, int64(18000), q2.YearRemainingCents)
}

func TestComputeCopay_Clamps(t *testing.T) {
	calc, conn, node := newCalculator(t)
	patientID := node.Generate()
	on := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	copay, err := calc.ComputeCopay(context.Background(), patientID, 2612, on)
	assert.NoError(t, err)
	assert.Equal(t, int64(2612), copay)

	seedCopay(t, conn, node, patientID, 5800, true, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))

	copay, err = calc.ComputeCopay(context.Background(), patientID, 2612, on)
	assert.NoError(t, err)
	assert.Equal(t, int64(200), copay)

	seedCopay(t, conn, node, patientID, 200, true, on)

	copay, err = calc.ComputeCopay(context.Background(), patientID, 2612, on)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), copay)
}

func TestComputeCopay_ZeroAndNegativeBase(t *testing.T) {
	calc, _, node := newCalculator(t)

	copay, err := calc.ComputeCopay(context.Background(), node.Generate(), 0, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), copay)

	copay, err = calc.ComputeCopay(context.Background(), node.Generate(), -100, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), copay)
}
