package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/services/maintenance"
)

// MaintenanceHandler exposes the maintenance sweep to an external scheduler
type MaintenanceHandler struct {
	sweepService *maintenance.SweepService
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(sweepService *maintenance.SweepService) *MaintenanceHandler {
	return &MaintenanceHandler{sweepService: sweepService}
}

// RunSweep godoc
// @Summary Run maintenance sweep
// @Description Expire overdue subscriptions, auto-renew eligible ones, and prune stale revocation entries
// @Tags maintenance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} maintenance.SweepResult
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/maintenance/sweep [post]
func (h *MaintenanceHandler) RunSweep(c *gin.Context) {
	result, err := h.sweepService.Run(time.Now())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
