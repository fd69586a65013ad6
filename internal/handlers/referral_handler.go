package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gifting-circle/internal/auth"
	"gifting-circle/internal/services"
)

// ReferralHandler handles referral HTTP requests
type ReferralHandler struct {
	referralService *services.ReferralService
	userService     *services.UserService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referralService *services.ReferralService, userService *services.UserService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		userService:     userService,
	}
}

// GetReferralCode returns the user's referral code and shareable link
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	code, err := h.referralService.GetReferralCode(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"code": code,
			"link": h.referralService.BuildInviteLink(code),
		},
	})
}

// GetReferralStats returns aggregated referral counts for the user
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summary, err := h.referralService.GetReferralSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// ValidateCode checks a referral code before sign-up so the form can fail fast
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	code := c.Param("code")

	referrer, err := h.userService.GetUserByReferralCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"referrer_name": referrer.FullName,
		},
	})
}
