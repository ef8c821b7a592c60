package domain

import "errors"

var (
	ErrNotFound           = errors.New("not_found")
	ErrNoPriceFound       = errors.New("no_price_found")
	ErrPricePeriodOverlap = errors.New("price_period_overlap")
	ErrInvalidPeriodRange = errors.New("invalid_period_range")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidGroupKind   = errors.New("invalid_group_kind")
	ErrPeriodNotOpenEnded = errors.New("period_not_open_ended")
)
