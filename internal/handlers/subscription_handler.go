package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

// SubscriptionHandler handles subscription lifecycle endpoints
type SubscriptionHandler struct {
	lifecycle *subscription.Service
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(lifecycle *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{lifecycle: lifecycle}
}

// Get godoc
// @Summary Get subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid}/subscription [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.lifecycle.Get(c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// Activate godoc
// @Summary Activate subscription
// @Description Create or restart the subscription of a key; fails if an active one exists
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Param request body subscription.ActivateRequest true "Activation parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/keys/{uid}/subscription/activate [post]
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	var req subscription.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sub, err := h.lifecycle.Activate(c.Param("uid"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "subscription": sub})
}

// Renew godoc
// @Summary Renew subscription
// @Description Extend the subscription; unexpired time is preserved
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Param request body subscription.RenewRequest true "Renewal parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid}/subscription/renew [post]
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	var req subscription.RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sub, err := h.lifecycle.Renew(c.Param("uid"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// Cancel godoc
// @Summary Cancel subscription
// @Description Turn off auto-renew and mark cancelled; remaining paid time stays usable
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid}/subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.lifecycle.Cancel(c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}
