package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/pkg/db/option"
	"github.com/praxisuite/therabill/pkg/db/pagination"
)

type createCyclesRequest struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// CreateBillingCycles bulk-creates one draft cycle per insurer with billable
// appointments in the range, reporting the per-insurer outcome.
func (s *Server) CreateBillingCycles(c *gin.Context) {
	var req createCyclesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	results, err := s.billingSvc.CreateCyclesForRange(c.Request.Context(), req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) ListBillingCycles(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if page.PageSize <= 0 {
		page.PageSize = 50
	}

	var afterID int64
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if afterID, err = strconv.ParseInt(cursor.ID, 10, 64); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	resp, err := s.billingSvc.ListCycles(c.Request.Context(),
		option.WithIDBefore(afterID),
		option.WithLimit(page.PageSize+1),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageInfo := pagination.BuildCursorPageInfo(resp, page.PageSize, func(cycle billingdomain.BillingCycle) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: cycle.ID.String()})
		return token
	})
	if len(resp) > page.PageSize {
		resp = resp[:page.PageSize]
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) GetBillingCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := s.billingSvc.GetCycle(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBillingCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.billingSvc.DeleteCycle(c.Request.Context(), cycleID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListBillingItems(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	sort := option.WithQuerySortBy(c.Query("sort_by"), c.Query("order_by"), billingItemSortFields)
	if sort == "" {
		sort = "service_date ASC, id ASC"
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := s.billingSvc.ListItems(c.Request.Context(), cycleID,
		option.WithSortBy(sort),
		option.WithLimit(limit),
		option.WithOffset(offset),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

var billingItemSortFields = map[string]bool{
	"id":           true,
	"service_date": true,
	"patient_id":   true,
}

// RunBillingCycle bills every eligible appointment in the cycle's slot.
func (s *Server) RunBillingCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	report, err := s.billingSvc.BillCycle(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

type createItemRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// CreateBillingItem bills a single appointment into the cycle.
func (s *Server) CreateBillingItem(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	appointmentID, err := parseBodyID(req.AppointmentID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	item, err := s.billingSvc.CreateItem(c.Request.Context(), billingdomain.CreateItemRequest{
		AppointmentID:  appointmentID,
		BillingCycleID: cycleID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RecomputeBillingCycleTotals(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := s.billingSvc.RecomputeTotals(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type transitionRequest struct {
	Status billingdomain.CycleStatus `json:"status"`
}

func (s *Server) TransitionBillingCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	next := billingdomain.CycleStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if next == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingSvc.Transition(c.Request.Context(), cycleID, next)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
