package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/pkg/apperrors"
)

// SlotsHandler serves slot availability for the widget.
type SlotsHandler struct {
	backend backend.Backend
}

// NewSlotsHandler creates a slots handler over the given backend.
func NewSlotsHandler(b backend.Backend) *SlotsHandler {
	return &SlotsHandler{backend: b}
}

// GetSlots handles GET /appointments/slots?date=YYYY-MM-DD&duration=N.
func (h *SlotsHandler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	minutes, err := strconv.Atoi(c.DefaultQuery("duration", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a number"})
		return
	}
	duration, err := models.ParseDuration(minutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.backend.FetchSlots(c.Request.Context(), date, duration)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindInvalid, apperrors.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.UserMessage(err)})
		case apperrors.KindRateLimit:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": apperrors.UserMessage(err)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
