package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/export"
	"github.com/nexkey/nexkey-admin-backend/internal/utils"
)

// BillingHandler serves the payment ledger, audit log, and Excel export
type BillingHandler struct {
	paymentRepo   *repository.PaymentRepository
	auditService  *services.AuditService
	exportService *export.Service
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(paymentRepo *repository.PaymentRepository, auditService *services.AuditService, exportService *export.Service) *BillingHandler {
	return &BillingHandler{
		paymentRepo:   paymentRepo,
		auditService:  auditService,
		exportService: exportService,
	}
}

// ListPayments godoc
// @Summary List payments for a key
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/keys/{uid}/payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
	offset := utils.CalculateOffset(page, pageSize)

	payments, total, err := h.paymentRepo.ListByAPIKeyUID(c.Param("uid"), offset, pageSize)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"payments":   payments,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// ListAuditLogs godoc
// @Summary List audit logs
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Param api_key_uid query string false "Filter by key uid"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/audit-logs [get]
func (h *BillingHandler) ListAuditLogs(c *gin.Context) {
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	entries, total, err := h.auditService.List(c.Query("api_key_uid"), page, pageSize)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"audit_logs": entries,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// ExportPayments godoc
// @Summary Export payments as Excel
// @Description Download the payment ledger and key usage as an xlsx workbook
// @Tags billing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /api/v1/export/payments [get]
func (h *BillingHandler) ExportPayments(c *gin.Context) {
	data, filename, err := h.exportService.ExportPayments()
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
