package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/internal/validation"
	"github.com/slotform/slotform-core/pkg/apperrors"
)

// SubmitHandler accepts contact form submissions from the widget.
type SubmitHandler struct {
	backend backend.Backend
}

// NewSubmitHandler creates a submit handler over the given backend.
func NewSubmitHandler(b backend.Backend) *SubmitHandler {
	return &SubmitHandler{backend: b}
}

// Submit handles POST /submit. Status codes follow the widget's wire
// contract: 409 for a lost booking race, 429 for rate limiting, 400
// for rejected field content. A honeypot hit answers 200 with a
// generic failure envelope so automated submitters learn nothing.
func (h *SubmitHandler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SubmitResponse{
			Success: false,
			Errors:  validation.WireMessages(err),
		})
		return
	}

	resp, err := h.backend.Submit(c.Request.Context(), &req)
	if err == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindConflict:
		if resp == nil {
			resp = &models.SubmitResponse{Success: false}
		}
		resp.Error = apperrors.UserMessage(err)
		c.JSON(http.StatusConflict, resp)
	case apperrors.KindRateLimit:
		c.JSON(http.StatusTooManyRequests, models.SubmitResponse{
			Success: false,
			Error:   apperrors.UserMessage(err),
		})
	case apperrors.KindValidation:
		if resp != nil && len(resp.Errors) > 0 {
			c.JSON(http.StatusBadRequest, resp)
			return
		}
		// Plain rejection, including the honeypot path.
		if resp == nil {
			resp = &models.SubmitResponse{Success: false, Error: apperrors.UserMessage(err)}
		}
		c.JSON(http.StatusOK, resp)
	default:
		c.JSON(http.StatusInternalServerError, models.SubmitResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}
}
