package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
)

// GenerateInsurerClaims creates insurer claims for one cycle; re-running
// reports already-claimed insurers as skipped.
func (s *Server) GenerateInsurerClaims(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	results, err := s.claimsSvc.GenerateClaims(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) ListInsurerClaims(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := s.claimsSvc.ListClaims(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateCopayInvoices(c *gin.Context) {
	claimID, ok := parseID(c, "id")
	if !ok {
		return
	}
	results, err := s.claimsSvc.GenerateCopayInvoices(c.Request.Context(), claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) ListCopayInvoices(c *gin.Context) {
	claimID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := s.claimsSvc.ListCopayInvoices(c.Request.Context(), claimID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GeneratePrivateInvoices(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	results, err := s.claimsSvc.GeneratePrivateInvoices(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) ListPrivateInvoices(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := s.claimsSvc.ListPrivateInvoices(c.Request.Context(), cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func invoiceKind(c *gin.Context) (claimsdomain.InvoiceKind, bool) {
	kind := claimsdomain.InvoiceKind(strings.TrimSpace(c.Param("kind")))
	if kind != claimsdomain.InvoiceKindCopay && kind != claimsdomain.InvoiceKindPrivate {
		AbortWithError(c, claimsdomain.ErrInvalidInvoiceKind)
		return "", false
	}
	return kind, true
}

func (s *Server) MarkInvoiceSent(c *gin.Context) {
	kind, ok := invoiceKind(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.claimsSvc.MarkInvoiceSent(c.Request.Context(), kind, invoiceID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": claimsdomain.StatusSent}})
}

type markPaidRequest struct {
	AmountCents int64      `json:"amount_cents"`
	PaidAt      *time.Time `json:"paid_at"`
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	kind, ok := invoiceKind(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	if err := s.claimsSvc.MarkInvoicePaid(c.Request.Context(), kind, invoiceID, req.AmountCents, paidAt); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": claimsdomain.StatusPaid}})
}

// RenderPrivateInvoicePDF streams the patient invoice document.
func (s *Server) RenderPrivateInvoicePDF(c *gin.Context) {
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	doc, err := s.claimsSvc.RenderPrivateInvoicePDF(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (s *Server) ListOverdueInvoices(c *gin.Context) {
	resp, err := s.claimsSvc.OverdueInvoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
