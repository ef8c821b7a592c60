package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) billingdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTrx(tx *gorm.DB) billingdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateCycle(ctx context.Context, c *billingdomain.BillingCycle) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindCycle(ctx context.Context, id snowflake.ID) (*billingdomain.BillingCycle, error) {
	var c billingdomain.BillingCycle
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindOverlappingCycle(ctx context.Context, insurerID *snowflake.ID, from, until time.Time) (*billingdomain.BillingCycle, error) {
	var c billingdomain.BillingCycle
	stmt := r.db.WithContext(ctx).
		Where("period_start <= ? AND period_end >= ?", until, from)
	if insurerID == nil {
		stmt = stmt.Where("insurer_id IS NULL")
	} else {
		stmt = stmt.Where("insurer_id = ?", *insurerID)
	}
	err := stmt.Order("id DESC").First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListCycles(ctx context.Context, opts ...option.QueryOption) ([]billingdomain.BillingCycle, error) {
	var items []billingdomain.BillingCycle
	stmt := r.db.WithContext(ctx).Order("id DESC")
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	err := stmt.Find(&items).Error
	return items, err
}

func (r *repository) UpdateCycleStatus(ctx context.Context, c *billingdomain.BillingCycle, now time.Time) error {
	c.UpdatedAt = now
	return r.db.WithContext(ctx).Exec(
		`UPDATE billing_cycles
		 SET status = ?, exported_at = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		c.Status,
		c.ExportedAt,
		c.CompletedAt,
		c.UpdatedAt,
		c.ID,
	).Error
}

func (r *repository) UpdateCycleTotals(ctx context.Context, id snowflake.ID, totals billingdomain.CycleTotals, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE billing_cycles
		 SET total_insurer_amount_cents = ?, total_patient_copay_cents = ?, updated_at = ?
		 WHERE id = ?`,
		totals.InsurerAmountCents,
		totals.PatientCopayCents,
		now,
		id,
	).Error
}

func (r *repository) DeleteCycle(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM billing_cycles WHERE id = ?`, id,
	).Error
}

func (r *repository) CreateItem(ctx context.Context, item *billingdomain.BillingItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, appointmentID, cycleID snowflake.ID) (*billingdomain.BillingItem, error) {
	var item billingdomain.BillingItem
	err := r.db.WithContext(ctx).
		First(&item, "appointment_id = ? AND billing_cycle_id = ?", appointmentID, cycleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, cycleID snowflake.ID, opts ...option.QueryOption) ([]billingdomain.BillingItem, error) {
	var items []billingdomain.BillingItem
	stmt := r.db.WithContext(ctx).Where("billing_cycle_id = ?", cycleID)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	if len(opts) == 0 {
		stmt = stmt.Order("service_date ASC, id ASC")
	}
	err := stmt.Find(&items).Error
	return items, err
}

func (r *repository) SumTotals(ctx context.Context, cycleID snowflake.ID) (billingdomain.CycleTotals, error) {
	var totals billingdomain.CycleTotals
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(insurer_amount_cents), 0) AS insurer_amount_cents,
		        COALESCE(SUM(patient_copay_cents), 0) AS patient_copay_cents,
		        COUNT(1) AS item_count
		 FROM billing_items
		 WHERE billing_cycle_id = ?`,
		cycleID,
	).Scan(&totals).Error
	return totals, err
}
