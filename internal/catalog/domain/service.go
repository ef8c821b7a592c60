package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Resolver is the price lookup consumed by the billing item factory.
type Resolver interface {
	Resolve(ctx context.Context, treatmentID, groupID snowflake.ID, on time.Time) (*PricePeriod, error)
}

type Service interface {
	Resolver

	CreateTreatment(ctx context.Context, req CreateTreatmentRequest) (*Treatment, error)
	ListTreatments(ctx context.Context) ([]Treatment, error)

	CreateGroup(ctx context.Context, req CreateGroupRequest) (*InsurerGroup, error)
	ListGroups(ctx context.Context) ([]InsurerGroup, error)

	CreateInsurer(ctx context.Context, req CreateInsurerRequest) (*Insurer, error)
	ListInsurers(ctx context.Context) ([]Insurer, error)

	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*PricePeriod, error)
	// ClosePeriod bounds an open-ended period so a successor can start.
	ClosePeriod(ctx context.Context, periodID snowflake.ID, until time.Time) (*PricePeriod, error)
	ListPeriods(ctx context.Context, treatmentID, groupID snowflake.ID) ([]PricePeriod, error)

	// ValidateAll sweeps every stored period pair for overlap violations
	// introduced by bulk data loads that bypassed creation-time validation.
	ValidateAll(ctx context.Context) ([]OverlapViolation, error)
}

type CreateTreatmentRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	DurationMinutes   int32  `json:"duration_minutes"`
	IsSelfPay         bool   `json:"is_self_pay"`
	SelfPayPriceCents *int64 `json:"self_pay_price_cents"`
}

type CreateGroupRequest struct {
	Name string    `json:"name"`
	Kind GroupKind `json:"kind"`
}

type CreateInsurerRequest struct {
	Name           string       `json:"name"`
	InsurerGroupID snowflake.ID `json:"insurer_group_id"`
}

type CreatePeriodRequest struct {
	TreatmentID        snowflake.ID `json:"treatment_id"`
	InsurerGroupID     snowflake.ID `json:"insurer_group_id"`
	InsurerAmountCents int64        `json:"insurer_amount_cents"`
	PatientAmountCents int64        `json:"patient_amount_cents"`
	ValidFrom          time.Time    `json:"valid_from"`
	// ValidUntil is optional; zero means open-ended.
	ValidUntil *time.Time `json:"valid_until"`
}
