package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gifting-circle/internal/auth"
	"gifting-circle/internal/metrics"
	"gifting-circle/internal/models"
	"gifting-circle/internal/services"
)

// DonationHandler handles donation submissions
type DonationHandler struct {
	donationService *services.DonationService
	metrics         *metrics.Metrics
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(donationService *services.DonationService, m *metrics.Metrics) *DonationHandler {
	return &DonationHandler{donationService: donationService, metrics: m}
}

// SubmitDonation records a donation from the authenticated user
func (h *DonationHandler) SubmitDonation(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Level      string `json:"level" binding:"required"`
		Amount     string `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiver id"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid amount"})
		return
	}

	gift, err := h.donationService.SubmitDonation(c.Request.Context(), userID, receiverID, models.UserLevel(req.Level), amount)
	if err != nil {
		h.recordOutcome(err)
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDonation(metrics.OutcomeAccepted)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gift,
	})
}

func (h *DonationHandler) recordOutcome(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCapacityExceeded):
		h.metrics.RecordDonation(metrics.OutcomeCapacity)
	case errors.Is(err, services.ErrConflict):
		h.metrics.RecordDonation(metrics.OutcomeConflict)
	case errors.Is(err, services.ErrInvalidInput):
		h.metrics.RecordDonation(metrics.OutcomeInvalid)
	default:
		h.metrics.RecordDonation(metrics.OutcomeError)
	}
}
