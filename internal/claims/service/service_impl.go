package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	"github.com/praxisuite/therabill/internal/clock"
	"github.com/praxisuite/therabill/internal/config"
	patientdomain "github.com/praxisuite/therabill/internal/patient/domain"
	"github.com/praxisuite/therabill/internal/providers/pdf"
	"github.com/praxisuite/therabill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Cfg        config.BillingConfig
	Repository claimsdomain.Repository
	Cycles     billingdomain.Repository
	Patients   patientdomain.Repository
	Catalog    catalogdomain.Repository
	PDF        pdf.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.BillingConfig
	repo     claimsdomain.Repository
	cycles   billingdomain.Repository
	patients patientdomain.Repository
	catalog  catalogdomain.Repository
	pdf      pdf.Provider
}

func NewService(p ServiceParam) claimsdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("claims.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg,
		repo:     p.Repository,
		cycles:   p.Cycles,
		patients: p.Patients,
		catalog:  p.Catalog,
		pdf:      p.PDF,
	}
}

// claimableCycle loads the cycle and rejects drafts; documents are only
// generated once the item set is frozen.
func (s *Service) claimableCycle(ctx context.Context, cycleID snowflake.ID) (*billingdomain.BillingCycle, error) {
	cycle, err := s.cycles.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, claimsdomain.ErrNotFound
	}
	if cycle.Status == billingdomain.CycleStatusDraft {
		return nil, claimsdomain.ErrCycleNotReady
	}
	return cycle, nil
}

func (s *Service) GenerateClaims(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.ClaimResult, error) {
	cycle, err := s.claimableCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	shares, err := s.repo.InsurerShares(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	results := make([]claimsdomain.ClaimResult, 0, len(shares))
	for _, share := range shares {
		result := claimsdomain.ClaimResult{
			InsurerID:   share.InsurerID,
			AmountCents: share.AmountCents,
		}

		claim := &claimsdomain.InsurerClaim{
			ID:             s.genID.Generate(),
			BillingCycleID: cycle.ID,
			InsurerID:      share.InsurerID,
			ClaimNumber:    "CLM-" + ulid.Make().String(),
			AmountCents:    share.AmountCents,
			ItemCount:      share.ItemCount,
			Status:         claimsdomain.StatusCreated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := s.repo.CreateClaim(ctx, claim)
		switch {
		case db.IsDuplicateKeyErr(err):
			result.Skipped = "claim_exists"
		case err != nil:
			result.Error = err.Error()
		default:
			result.ClaimID = &claim.ID
			result.ClaimNumber = claim.ClaimNumber
			s.log.Info("insurer claim created",
				zap.String("billing_cycle_id", cycle.ID.String()),
				zap.String("insurer_id", share.InsurerID.String()),
				zap.String("claim_number", claim.ClaimNumber),
				zap.Int64("amount_cents", share.AmountCents),
			)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) GenerateCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]claimsdomain.InvoiceResult, error) {
	claim, err := s.repo.FindClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, claimsdomain.ErrNotFound
	}

	shares, err := s.repo.CopayShares(ctx, claim.BillingCycleID, claim.InsurerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	due := now.AddDate(0, 0, s.cfg.InvoiceDueDays)
	results := make([]claimsdomain.InvoiceResult, 0, len(shares))
	for _, share := range shares {
		result := claimsdomain.InvoiceResult{
			PatientID:   share.PatientID,
			AmountCents: share.AmountCents,
		}

		inv := &claimsdomain.PatientCopayInvoice{
			ID:             s.genID.Generate(),
			ClaimID:        claim.ID,
			BillingCycleID: claim.BillingCycleID,
			PatientID:      share.PatientID,
			InvoiceNumber:  "INV-" + ulid.Make().String(),
			AmountCents:    share.AmountCents,
			Status:         claimsdomain.StatusCreated,
			DueDate:        due,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := s.repo.CreateCopayInvoice(ctx, inv)
		switch {
		case db.IsDuplicateKeyErr(err):
			result.Skipped = "invoice_exists"
		case err != nil:
			result.Error = err.Error()
		default:
			result.InvoiceID = &inv.ID
			result.InvoiceNumber = inv.InvoiceNumber
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) GeneratePrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.InvoiceResult, error) {
	cycle, err := s.claimableCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	shares, err := s.repo.PrivateShares(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	due := now.AddDate(0, 0, s.cfg.InvoiceDueDays)
	results := make([]claimsdomain.InvoiceResult, 0, len(shares))
	for _, share := range shares {
		result := claimsdomain.InvoiceResult{
			PatientID:   share.PatientID,
			AmountCents: share.AmountCents,
		}

		inv := &claimsdomain.PrivatePatientInvoice{
			ID:             s.genID.Generate(),
			BillingCycleID: cycle.ID,
			PatientID:      share.PatientID,
			InvoiceNumber:  "INV-" + ulid.Make().String(),
			AmountCents:    share.AmountCents,
			Status:         claimsdomain.StatusCreated,
			DueDate:        due,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err := s.repo.CreatePrivateInvoice(ctx, inv)
		switch {
		case db.IsDuplicateKeyErr(err):
			result.Skipped = "invoice_exists"
		case err != nil:
			result.Error = err.Error()
		default:
			result.InvoiceID = &inv.ID
			result.InvoiceNumber = inv.InvoiceNumber
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) MarkInvoiceSent(ctx context.Context, kind claimsdomain.InvoiceKind, id snowflake.ID) error {
	now := s.clock.Now()
	return s.transitionInvoice(ctx, kind, id, claimsdomain.StatusSent, func(status *claimsdomain.DocumentStatus, sentAt, paidAt **time.Time, paidAmount **int64) {
		*status = claimsdomain.StatusSent
		*sentAt = &now
	})
}

func (s *Service) MarkInvoicePaid(ctx context.Context, kind claimsdomain.InvoiceKind, id snowflake.ID, amountCents int64, paidAt time.Time) error {
	if amountCents <= 0 {
		return claimsdomain.ErrInvalidAmount
	}
	paidAt = paidAt.UTC()
	return s.transitionInvoice(ctx, kind, id, claimsdomain.StatusPaid, func(status *claimsdomain.DocumentStatus, sentAt, paidAtField **time.Time, paidAmount **int64) {
		*status = claimsdomain.StatusPaid
		*paidAtField = &paidAt
		*paidAmount = &amountCents
	})
}

func (s *Service) transitionInvoice(ctx context.Context, kind claimsdomain.InvoiceKind, id snowflake.ID, next claimsdomain.DocumentStatus, apply func(*claimsdomain.DocumentStatus, **time.Time, **time.Time, **int64)) error {
	now := s.clock.Now()
	switch kind {
	case claimsdomain.InvoiceKindCopay:
		inv, err := s.repo.FindCopayInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return claimsdomain.ErrNotFound
		}
		if !inv.Status.CanTransitionTo(next) {
			return claimsdomain.ErrInvalidTransition
		}
		apply(&inv.Status, &inv.SentAt, &inv.PaidAt, &inv.PaidAmountCents)
		inv.UpdatedAt = now
		return s.repo.UpdateCopayInvoice(ctx, inv)
	case claimsdomain.InvoiceKindPrivate:
		inv, err := s.repo.FindPrivateInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return claimsdomain.ErrNotFound
		}
		if !inv.Status.CanTransitionTo(next) {
			return claimsdomain.ErrInvalidTransition
		}
		apply(&inv.Status, &inv.SentAt, &inv.PaidAt, &inv.PaidAmountCents)
		inv.UpdatedAt = now
		return s.repo.UpdatePrivateInvoice(ctx, inv)
	default:
		return claimsdomain.ErrInvalidInvoiceKind
	}
}

func (s *Service) ListClaims(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.InsurerClaim, error) {
	return s.repo.ListClaims(ctx, cycleID)
}

func (s *Service) ListCopayInvoices(ctx context.Context, claimID snowflake.ID) ([]claimsdomain.PatientCopayInvoice, error) {
	return s.repo.ListCopayInvoices(ctx, claimID)
}

func (s *Service) ListPrivateInvoices(ctx context.Context, cycleID snowflake.ID) ([]claimsdomain.PrivatePatientInvoice, error) {
	return s.repo.ListPrivateInvoices(ctx, cycleID)
}

func (s *Service) OverdueInvoices(ctx context.Context) ([]claimsdomain.OverdueInvoice, error) {
	return s.repo.OverdueInvoices(ctx, s.clock.Now())
}

func (s *Service) RenderPrivateInvoicePDF(ctx context.Context, id snowflake.ID) ([]byte, error) {
	inv, err := s.repo.FindPrivateInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, claimsdomain.ErrNotFound
	}

	cycle, err := s.cycles.FindCycle(ctx, inv.BillingCycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, claimsdomain.ErrNotFound
	}

	patient, err := s.patients.FindByID(ctx, inv.PatientID)
	if err != nil {
		return nil, err
	}
	patientName := fmt.Sprintf("Patient %s", inv.PatientID.String())
	if patient != nil {
		patientName = patient.FullName()
	}

	items, err := s.cycles.ListItems(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	data := pdf.InvoiceData{
		PracticeName:  "Therapiepraxis",
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.CreatedAt.Format("2006-01-02"),
		DueDate:       inv.DueDate.Format("2006-01-02"),
		ServicePeriod: fmt.Sprintf("%s to %s",
			cycle.PeriodStart.Format("2006-01-02"),
			cycle.PeriodEnd.Format("2006-01-02")),
		PatientName: patientName,
		Total:       FormatEUR(inv.AmountCents),
	}
	for _, item := range items {
		total := item.InsurerAmountCents + item.PatientCopayCents
		if item.PatientID != inv.PatientID || item.Statutory || total == 0 {
			continue
		}
		description := "Treatment"
		if treatment, err := s.catalog.FindTreatment(ctx, item.TreatmentID); err == nil && treatment != nil {
			description = treatment.Name
		}
		data.Items = append(data.Items, pdf.InvoiceItem{
			ServiceDate: item.ServiceDate.Format("2006-01-02"),
			Description: description,
			Amount:      FormatEUR(total),
		})
	}

	return s.pdf.RenderInvoice(ctx, data)
}

// FormatEUR renders a cent amount as a euro string for documents.
func FormatEUR(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d EUR", sign, cents/100, cents%100)
}
