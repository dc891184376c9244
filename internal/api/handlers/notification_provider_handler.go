package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigilops/ipsentry/internal/models"
	"github.com/vigilops/ipsentry/internal/services"
)

// NotificationProviderHandler manages external alert destinations.
type NotificationProviderHandler struct {
	service *services.NotificationService
}

func NewNotificationProviderHandler(service *services.NotificationService) *NotificationProviderHandler {
	return &NotificationProviderHandler{service: service}
}

// List returns all providers.
func (h *NotificationProviderHandler) List(c *gin.Context) {
	providers, err := h.service.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, providers)
}

// CreateProviderRequest is the body for creating a provider.
type CreateProviderRequest struct {
	Name         string `json:"name" binding:"required"`
	Type         string `json:"type" binding:"required"`
	URL          string `json:"url" binding:"required"`
	Enabled      bool   `json:"enabled"`
	NotifyBlocks bool   `json:"notify_blocks"`
}

// Create stores a new provider.
func (h *NotificationProviderHandler) Create(c *gin.Context) {
	var req CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider := models.NotificationProvider{
		Name:         req.Name,
		Type:         req.Type,
		URL:          req.URL,
		Enabled:      req.Enabled,
		NotifyBlocks: req.NotifyBlocks,
	}
	if err := h.service.CreateProvider(&provider); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

// Delete removes a provider by id.
func (h *NotificationProviderHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteProvider(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Test sends a test message through the provider.
func (h *NotificationProviderHandler) Test(c *gin.Context) {
	if err := h.service.TestProvider(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
