package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GetCopayAllowance reports a patient's remaining quarterly and yearly copay
// headroom as of a date (defaults to today).
func (s *Server) GetCopayAllowance(c *gin.Context) {
	patientID, ok := parseID(c, "id")
	if !ok {
		return
	}

	on := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		on = parsed
	}

	allowance, err := s.copaySvc.RemainingAllowance(c.Request.Context(), patientID, on)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": allowance})
}
