package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	"github.com/praxisuite/therabill/internal/locking"
	"gorm.io/gorm"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts the last handler error into the JSON
// error envelope. Handlers abort with domain errors and never write error
// bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalogdomain.ErrInvalidPeriodRange),
		errors.Is(err, catalogdomain.ErrInvalidAmount),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidGroupKind),
		errors.Is(err, catalogdomain.ErrPeriodNotOpenEnded),
		errors.Is(err, billingdomain.ErrInvalidCyclePeriod),
		errors.Is(err, claimsdomain.ErrInvalidAmount),
		errors.Is(err, claimsdomain.ErrInvalidInvoiceKind):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, claimsdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, catalogdomain.ErrPricePeriodOverlap),
		errors.Is(err, billingdomain.ErrDuplicateBillingItem),
		errors.Is(err, billingdomain.ErrCycleExists),
		errors.Is(err, billingdomain.ErrInvalidTransition),
		errors.Is(err, billingdomain.ErrCycleNotDraft),
		errors.Is(err, billingdomain.ErrCycleEmpty),
		errors.Is(err, billingdomain.ErrCycleHasItems),
		errors.Is(err, billingdomain.ErrCycleMismatch),
		errors.Is(err, claimsdomain.ErrCycleNotReady),
		errors.Is(err, claimsdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case errors.Is(err, catalogdomain.ErrNoPriceFound),
		errors.Is(err, billingdomain.ErrNotEligible),
		errors.Is(err, billingdomain.ErrZeroAmounts),
		errors.Is(err, billingdomain.ErrSelfPayPriceMissing),
		errors.Is(err, billingdomain.ErrMissingInsurer):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}

	case errors.Is(err, locking.ErrLockTimeout):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "try again later",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
