package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
)

func parseID(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func parseBodyID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

type createTreatmentRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	DurationMinutes   int32  `json:"duration_minutes"`
	IsSelfPay         bool   `json:"is_self_pay"`
	SelfPayPriceCents *int64 `json:"self_pay_price_cents"`
}

func (s *Server) CreateTreatment(c *gin.Context) {
	var req createTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.CreateTreatment(c.Request.Context(), catalogdomain.CreateTreatmentRequest{
		Name:              req.Name,
		Category:          req.Category,
		DurationMinutes:   req.DurationMinutes,
		IsSelfPay:         req.IsSelfPay,
		SelfPayPriceCents: req.SelfPayPriceCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTreatments(c *gin.Context) {
	resp, err := s.catalogSvc.ListTreatments(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createGroupRequest struct {
	Name string                  `json:"name"`
	Kind catalogdomain.GroupKind `json:"kind"`
}

func (s *Server) CreateInsurerGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.CreateGroup(c.Request.Context(), catalogdomain.CreateGroupRequest{
		Name: req.Name,
		Kind: req.Kind,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInsurerGroups(c *gin.Context) {
	resp, err := s.catalogSvc.ListGroups(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createInsurerRequest struct {
	Name           string `json:"name"`
	InsurerGroupID string `json:"insurer_group_id"`
}

func (s *Server) CreateInsurer(c *gin.Context) {
	var req createInsurerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	groupID, err := snowflake.ParseString(strings.TrimSpace(req.InsurerGroupID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.CreateInsurer(c.Request.Context(), catalogdomain.CreateInsurerRequest{
		Name:           req.Name,
		InsurerGroupID: groupID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInsurers(c *gin.Context) {
	resp, err := s.catalogSvc.ListInsurers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createPeriodRequest struct {
	TreatmentID        string     `json:"treatment_id"`
	InsurerGroupID     string     `json:"insurer_group_id"`
	InsurerAmountCents int64      `json:"insurer_amount_cents"`
	PatientAmountCents int64      `json:"patient_amount_cents"`
	ValidFrom          time.Time  `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until"`
}

func (s *Server) CreatePricePeriod(c *gin.Context) {
	var req createPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	treatmentID, err := snowflake.ParseString(strings.TrimSpace(req.TreatmentID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	groupID, err := snowflake.ParseString(strings.TrimSpace(req.InsurerGroupID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.CreatePeriod(c.Request.Context(), catalogdomain.CreatePeriodRequest{
		TreatmentID:        treatmentID,
		InsurerGroupID:     groupID,
		InsurerAmountCents: req.InsurerAmountCents,
		PatientAmountCents: req.PatientAmountCents,
		ValidFrom:          req.ValidFrom,
		ValidUntil:         req.ValidUntil,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type closePeriodRequest struct {
	ValidUntil time.Time `json:"valid_until"`
}

func (s *Server) ClosePricePeriod(c *gin.Context) {
	periodID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req closePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ValidUntil.IsZero() {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.ClosePeriod(c.Request.Context(), periodID, req.ValidUntil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPricePeriods(c *gin.Context) {
	treatmentID, err := snowflake.ParseString(strings.TrimSpace(c.Query("treatment_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	groupID, err := snowflake.ParseString(strings.TrimSpace(c.Query("insurer_group_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.ListPeriods(c.Request.Context(), treatmentID, groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ResolvePrice answers "what does this treatment cost for this group on this
// date", the same lookup the billing item factory performs.
func (s *Server) ResolvePrice(c *gin.Context) {
	treatmentID, err := snowflake.ParseString(strings.TrimSpace(c.Query("treatment_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	groupID, err := snowflake.ParseString(strings.TrimSpace(c.Query("insurer_group_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	on, err := time.Parse("2006-01-02", strings.TrimSpace(c.Query("date")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.catalogSvc.Resolve(c.Request.Context(), treatmentID, groupID, on)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidatePricePeriods(c *gin.Context) {
	violations, err := s.catalogSvc.ValidateAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"valid":      len(violations) == 0,
		"violations": violations,
	}})
}
