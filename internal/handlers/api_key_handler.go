package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/middleware"
	"github.com/nexkey/nexkey-admin-backend/internal/services/apikey"
	"github.com/nexkey/nexkey-admin-backend/internal/utils"
)

// APIKeyHandler handles HTTP requests related to API keys
type APIKeyHandler struct {
	apiKeyService *apikey.Service
}

// NewAPIKeyHandler creates a new APIKeyHandler instance
func NewAPIKeyHandler(apiKeyService *apikey.Service) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: apiKeyService}
}

// Create godoc
// @Summary Issue API key
// @Description Issue a new API key; the secret key value is returned once and never again
// @Tags api-keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body apikey.CreateRequest true "Key parameters"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/keys [post]
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req apikey.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	apiKey, secret, err := h.apiKeyService.Create(req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "API key created successfully",
		"api_key": apiKey,
		"key":     secret,
	})
}

// List godoc
// @Summary List API keys
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/keys [get]
func (h *APIKeyHandler) List(c *gin.Context) {
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	apiKeys, total, err := h.apiKeyService.List(page, pageSize)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"api_keys":   apiKeys,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// Get godoc
// @Summary Get API key
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid} [get]
func (h *APIKeyHandler) Get(c *gin.Context) {
	apiKey, err := h.apiKeyService.Get(c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "api_key": apiKey})
}

// Update godoc
// @Summary Update API key
// @Description Update a key's name or active flag
// @Tags api-keys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Param request body apikey.UpdateRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid} [put]
func (h *APIKeyHandler) Update(c *gin.Context) {
	var req apikey.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	apiKey, err := h.apiKeyService.Update(c.Param("uid"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "api_key": apiKey})
}

// Delete godoc
// @Summary Delete API key
// @Description Delete a key; its subscription cascades with it
// @Tags api-keys
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Key uid"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/keys/{uid} [delete]
func (h *APIKeyHandler) Delete(c *gin.Context) {
	if err := h.apiKeyService.Delete(c.Param("uid")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "API key deleted"})
}
