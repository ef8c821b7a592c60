package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) claimsdomain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTrx(tx *gorm.DB) claimsdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateClaim(ctx context.Context, claim *claimsdomain.InsurerClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) FindClaim(ctx context.Context, id snowflake.ID) (*claimsdomain.InsurerClaim, error) {
	var claim claimsdomain.InsurerClaim
	err := r.db.WithContext(ctx).First(&claim, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repository) ListClaims(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.InsurerClaim, error) {
	var claims []claimsdomain.InsurerClaim
	err := r.db.WithContext(ctx).
		Where("billing_cycle_id = ?", cycleID).
		Order("insurer_id ASC").
		Find(&claims).Error
	return claims, err
}

func (r *repository) UpdateClaim(ctx context.Context, claim *claimsdomain.InsurerClaim) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE insurer_claims
		 SET status = ?, sent_at = ?, paid_at = ?, updated_at = ?
		 WHERE id = ?`,
		claim.Status, claim.SentAt, claim.PaidAt, claim.UpdatedAt, claim.ID,
	).Error
}

func (r *repository) CreateCopayInvoice(ctx context.Context, inv *claimsdomain.PatientCopayInvoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) FindCopayInvoice(ctx context.Context, id snowflake.ID) (*claimsdomain.PatientCopayInvoice, error) {
	var inv claimsdomain.PatientCopayInvoice
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]claimsdomain.PatientCopayInvoice, error) {
	var invs []claimsdomain.PatientCopayInvoice
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("patient_id ASC").
		Find(&invs).Error
	return invs, err
}

func (r *repository) UpdateCopayInvoice(ctx context.Context, inv *claimsdomain.PatientCopayInvoice) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE patient_copay_invoices
		 SET status = ?, sent_at = ?, paid_at = ?, paid_amount_cents = ?, updated_at = ?
		 WHERE id = ?`,
		inv.Status, inv.SentAt, inv.PaidAt, inv.PaidAmountCents, inv.UpdatedAt, inv.ID,
	).Error
}

func (r *repository) CreatePrivateInvoice(ctx context.Context, inv *claimsdomain.PrivatePatientInvoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) FindPrivateInvoice(ctx context.Context, id snowflake.ID) (*claimsdomain.PrivatePatientInvoice, error) {
	var inv claimsdomain.PrivatePatientInvoice
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListPrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.PrivatePatientInvoice, error) {
	var invs []claimsdomain.PrivatePatientInvoice
	err := r.db.WithContext(ctx).
		Where("billing_cycle_id = ?", cycleID).
		Order("patient_id ASC").
		Find(&invs).Error
	return invs, err
}

func (r *repository) UpdatePrivateInvoice(ctx context.Context, inv *claimsdomain.PrivatePatientInvoice) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE private_patient_invoices
		 SET status = ?, sent_at = ?, paid_at = ?, paid_amount_cents = ?, updated_at = ?
		 WHERE id = ?`,
		inv.Status, inv.SentAt, inv.PaidAt, inv.PaidAmountCents, inv.UpdatedAt, inv.ID,
	).Error
}

func (r *repository) InsurerShares(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.InsurerShare, error) {
	var shares []claimsdomain.InsurerShare
	err := r.db.WithContext(ctx).Raw(
		`SELECT insurer_id,
		        SUM(insurer_amount_cents) AS amount_cents,
		        COUNT(1) AS item_count
		 FROM billing_items
		 WHERE billing_cycle_id = ?
		   AND statutory = ?
		   AND insurer_id IS NOT NULL
		 GROUP BY insurer_id
		 ORDER BY insurer_id`,
		cycleID, true,
	).Scan(&shares).Error
	return shares, err
}

func (r *repository) CopayShares(ctx context.Context, cycleID, insurerID snowflake.ID) ([]claimsdomain.PatientShare, error) {
	var shares []claimsdomain.PatientShare
	err := r.db.WithContext(ctx).Raw(
		`SELECT patient_id,
		        SUM(patient_copay_cents) AS amount_cents
		 FROM billing_items
		 WHERE billing_cycle_id = ?
		   AND insurer_id = ?
		   AND statutory = ?
		 GROUP BY patient_id
		 HAVING SUM(patient_copay_cents) > 0
		 ORDER BY patient_id`,
		cycleID, insurerID, true,
	).Scan(&shares).Error
	return shares, err
}

// PrivateShares sums the full item price per patient. No insurer claim is
// ever generated for private tariffs, so the insurer share lands on the
// patient invoice too; self-pay items carry it as zero.
func (r *repository) PrivateShares(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.PatientShare, error) {
	var shares []claimsdomain.PatientShare
	err := r.db.WithContext(ctx).Raw(
		`SELECT patient_id,
		        SUM(insurer_amount_cents + patient_copay_cents) AS amount_cents
		 FROM billing_items
		 WHERE billing_cycle_id = ?
		   AND statutory = ?
		 GROUP BY patient_id
		 HAVING SUM(insurer_amount_cents + patient_copay_cents) > 0
		 ORDER BY patient_id`,
		cycleID, false,
	).Scan(&shares).Error
	return shares, err
}

func (r *repository) OverdueInvoices(ctx context.Context, before time.Time) ([]claimsdomain.OverdueInvoice, error) {
	var overdue []claimsdomain.OverdueInvoice
	err := r.db.WithContext(ctx).Raw(
		`SELECT 'copay' AS kind, id, patient_id, amount_cents, status, due_date
		 FROM patient_copay_invoices
		 WHERE status IN (?, ?) AND due_date < ?
		 UNION ALL
		 SELECT 'private' AS kind, id, patient_id, amount_cents, status, due_date
		 FROM private_patient_invoices
		 WHERE status IN (?, ?) AND due_date < ?
		 ORDER BY due_date`,
		claimsdomain.StatusCreated, claimsdomain.StatusSent, before,
		claimsdomain.StatusCreated, claimsdomain.StatusSent, before,
	).Scan(&overdue).Error
	return overdue, err
}
