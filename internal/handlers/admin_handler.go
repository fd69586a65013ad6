package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gifting-circle/internal/auth"
	"gifting-circle/internal/services"
)

// AdminHandler handles admin-only HTTP requests
type AdminHandler struct {
	adminService       *services.AdminService
	progressionService *services.ProgressionService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *services.AdminService, progressionService *services.ProgressionService) *AdminHandler {
	return &AdminHandler{
		adminService:       adminService,
		progressionService: progressionService,
	}
}

// AdminMiddleware checks if the authenticated user holds the admin role
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		isAdmin, err := h.adminService.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify admin access"})
			c.Abort()
			return
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOverview returns the admin dashboard aggregate
func (h *AdminHandler) GetOverview(c *gin.Context) {
	overview, err := h.adminService.GetOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    overview,
	})
}

// GetSystemStats returns the funder and level aggregate for the admin view
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
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

// GetUsers returns a page of users, optionally filtered by search term
func (h *AdminHandler) GetUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	users, total, err := h.adminService.GetAllUsers(c.Request.Context(), limit, offset, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetGifts returns a page of gifts
func (h *AdminHandler) GetGifts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	gifts, total, err := h.adminService.GetAllGifts(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gifts,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// PromoteUserLevel advances a user one level
func (h *AdminHandler) PromoteUserLevel(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	user, err := h.adminService.PromoteUserLevel(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
