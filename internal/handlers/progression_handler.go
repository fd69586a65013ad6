package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gifting-circle/internal/auth"
	"gifting-circle/internal/services"
)

// ProgressionHandler serves the derived progression views
type ProgressionHandler struct {
	progressionService *services.ProgressionService
}

// NewProgressionHandler creates a new ProgressionHandler
func NewProgressionHandler(progressionService *services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progressionService: progressionService}
}

// GetProgress returns the authenticated user's progression view
func (h *ProgressionHandler) GetProgress(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	progress, err := h.progressionService.GetUserProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    progress,
	})
}

// GetSystemStats returns the system-wide funder and level aggregate
func (h *ProgressionHandler) GetSystemStats(c *gin.Context) {
	stats, err := h.progressionService.GetSystemStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
