package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gifting-circle/internal/services"
)

// respondError maps the service failure taxonomy onto HTTP statuses with a
// single human-readable message. Unrecognized errors are reported as
// internal without leaking details.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCapacityExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
	}
}
