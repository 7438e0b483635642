package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports devserver liveness.
type HealthHandler struct {
	backendMode string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(backendMode string) *HealthHandler {
	return &HealthHandler{backendMode: backendMode}
}

// Healthcheck handles GET /health.
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": h.backendMode,
	})
}
