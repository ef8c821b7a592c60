package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	appointmentdomain "github.com/praxisuite/therabill/internal/appointment/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) appointmentdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTrx(tx *gorm.DB) appointmentdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*appointmentdomain.Appointment, error) {
	var a appointmentdomain.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListBillableForInsurer(ctx context.Context, insurerID snowflake.ID, from, until time.Time) ([]appointmentdomain.Appointment, error) {
	var items []appointmentdomain.Appointment
	err := r.db.WithContext(ctx).
		Where("insurer_id = ? AND date >= ? AND date <= ?", insurerID, from, until).
		Where("status = ? OR (is_self_pay AND status = ?)",
			appointmentdomain.StatusReadyToBill,
			appointmentdomain.StatusCompleted,
		).
		Order("patient_id ASC, date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ListBillableSelfPay(ctx context.Context, from, until time.Time) ([]appointmentdomain.Appointment, error) {
	var items []appointmentdomain.Appointment
	err := r.db.WithContext(ctx).
		Where("insurer_id IS NULL AND is_self_pay AND date >= ? AND date <= ?", from, until).
		Where("status IN ?", []appointmentdomain.Status{
			appointmentdomain.StatusReadyToBill,
			appointmentdomain.StatusCompleted,
		}).
		Order("patient_id ASC, date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) InsurersWithBillable(ctx context.Context, from, until time.Time) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT insurer_id
		 FROM appointments
		 WHERE insurer_id IS NOT NULL
		   AND date >= ? AND date <= ?
		   AND (status = ? OR (is_self_pay AND status = ?))
		 ORDER BY insurer_id`,
		from,
		until,
		appointmentdomain.StatusReadyToBill,
		appointmentdomain.StatusCompleted,
	).Scan(&ids).Error
	return ids, err
}

func (r *repository) MarkBilled(ctx context.Context, id snowflake.ID, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE appointments
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		appointmentdomain.StatusBilled,
		now,
		id,
	).Error
}
