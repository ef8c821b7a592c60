package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/praxisuite/therabill/internal/config"
	"github.com/praxisuite/therabill/internal/copayment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	Cfg config.BillingConfig
}

type calculator struct {
	db   *gorm.DB
	log  *zap.Logger
	caps config.BillingConfig
}

func NewCalculator(p ServiceParam) domain.Calculator {
	return &calculator{
		db:   p.DB,
		log:  p.Log.Named("copayment.service"),
		caps: p.Cfg,
	}
}

func (c *calculator) RemainingAllowance(ctx context.Context, patientID snowflake.ID, on time.Time) (*domain.Allowance, error) {
	qStart, qEnd := domain.QuarterBounds(on)
	yStart, yEnd := domain.YearBounds(on)

	quarterBilled, err := c.billedCopaySum(ctx, patientID, qStart, qEnd)
	if err != nil {
		return nil, err
	}
	yearBilled, err := c.billedCopaySum(ctx, patientID, yStart, yEnd)
	if err != nil {
		return nil, err
	}

	return &domain.Allowance{
		QuarterRemainingCents: clampNonNegative(c.caps.CopayQuarterlyCapCents - quarterBilled),
		YearRemainingCents:    clampNonNegative(c.caps.CopayYearlyCapCents - yearBilled),
	}, nil
}

func (c *calculator) ComputeCopay(ctx context.Context, patientID snowflake.ID, baseCents int64, on time.Time) (int64, error) {
	if baseCents <= 0 {
		return 0, nil
	}

	allowance, err := c.RemainingAllowance(ctx, patientID, on)
	if err != nil {
		return 0, err
	}

	copay := baseCents
	if allowance.QuarterRemainingCents < copay {
		copay = allowance.QuarterRemainingCents
	}
	if allowance.YearRemainingCents < copay {
		copay = allowance.YearRemainingCents
	}
	if copay < baseCents {
		c.log.Debug("copay clamped by statutory ceiling",
			zap.Int64("patient_id", int64(patientID)),
			zap.Int64("base_cents", baseCents),
			zap.Int64("copay_cents", copay),
		)
	}
	return clampNonNegative(copay), nil
}

// billedCopaySum accumulates statutory copays already frozen on billing
// items for the patient within the window. Only statutory items count
// toward the ceilings; self-pay and private amounts are out of scope.
func (c *calculator) billedCopaySum(ctx context.Context, patientID snowflake.ID, from, until time.Time) (int64, error) {
	var sum int64
	err := c.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(patient_copay_cents), 0)
		 FROM billing_items
		 WHERE patient_id = ?
		   AND statutory = ?
		   AND service_date >= ?
		   AND service_date <= ?`,
		patientID,
		true,
		from,
		until,
	).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
