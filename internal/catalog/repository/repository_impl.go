package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) catalogdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTrx(tx *gorm.DB) catalogdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTreatment(ctx context.Context, t *catalogdomain.Treatment) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindTreatment(ctx context.Context, id snowflake.ID) (*catalogdomain.Treatment, error) {
	var t catalogdomain.Treatment
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListTreatments(ctx context.Context) ([]catalogdomain.Treatment, error) {
	var items []catalogdomain.Treatment
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repository) CreateGroup(ctx context.Context, g *catalogdomain.InsurerGroup) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *repository) FindGroup(ctx context.Context, id snowflake.ID) (*catalogdomain.InsurerGroup, error) {
	var g catalogdomain.InsurerGroup
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListGroups(ctx context.Context) ([]catalogdomain.InsurerGroup, error) {
	var items []catalogdomain.InsurerGroup
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repository) CreateInsurer(ctx context.Context, i *catalogdomain.Insurer) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *repository) FindInsurer(ctx context.Context, id snowflake.ID) (*catalogdomain.Insurer, error) {
	var i catalogdomain.Insurer
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *repository) ListInsurers(ctx context.Context) ([]catalogdomain.Insurer, error) {
	var items []catalogdomain.Insurer
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repository) CreatePeriod(ctx context.Context, p *catalogdomain.PricePeriod) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindPeriod(ctx context.Context, id snowflake.ID) (*catalogdomain.PricePeriod, error) {
	var p catalogdomain.PricePeriod
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindPeriodCovering(ctx context.Context, treatmentID, groupID snowflake.ID, on time.Time) (*catalogdomain.PricePeriod, error) {
	var p catalogdomain.PricePeriod
	err := r.db.WithContext(ctx).
		Where("treatment_id = ? AND insurer_group_id = ?", treatmentID, groupID).
		Where("valid_from <= ? AND valid_until >= ?", on, on).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindOverlapping(ctx context.Context, treatmentID, groupID snowflake.ID, from, until time.Time) ([]catalogdomain.PricePeriod, error) {
	var items []catalogdomain.PricePeriod
	err := r.db.WithContext(ctx).
		Where("treatment_id = ? AND insurer_group_id = ?", treatmentID, groupID).
		Where("valid_from <= ? AND valid_until >= ?", until, from).
		Order("valid_from ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ListPeriods(ctx context.Context, treatmentID, groupID snowflake.ID) ([]catalogdomain.PricePeriod, error) {
	var items []catalogdomain.PricePeriod
	stmt := r.db.WithContext(ctx).Model(&catalogdomain.PricePeriod{})
	if treatmentID != 0 {
		stmt = stmt.Where("treatment_id = ?", treatmentID)
	}
	if groupID != 0 {
		stmt = stmt.Where("insurer_group_id = ?", groupID)
	}
	err := stmt.Order("valid_from ASC").Find(&items).Error
	return items, err
}

func (r *repository) AllPeriods(ctx context.Context) ([]catalogdomain.PricePeriod, error) {
	var items []catalogdomain.PricePeriod
	err := r.db.WithContext(ctx).
		Order("treatment_id ASC, insurer_group_id ASC, valid_from ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ShortenPeriod(ctx context.Context, id snowflake.ID, until, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE price_periods
		 SET valid_until = ?, updated_at = ?
		 WHERE id = ?`,
		until,
		now,
		id,
	).Error
}
