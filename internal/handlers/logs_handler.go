package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slotform/slotform-core/pkg/logger"
	"go.uber.org/zap"
)

// LogsHandler ingests diagnostic logs posted by embedded widget
// instances and folds them into the server's log stream.
type LogsHandler struct{}

// LogEntry is one widget-side log line.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// LogBatchRequest is the POST /logs payload.
type LogBatchRequest struct {
	Logs []LogEntry `json:"logs" binding:"required,max=100,dive"`
}

// NewLogsHandler creates a logs handler.
func NewLogsHandler() *LogsHandler {
	return &LogsHandler{}
}

// ReceiveWidgetLogs handles POST /logs.
func (h *LogsHandler) ReceiveWidgetLogs(c *gin.Context) {
	var req LogBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(req.Logs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No logs provided"})
		return
	}

	for _, entry := range req.Logs {
		fields := []zap.Field{
			zap.String("service", "widget"),
			zap.String("widget_ts", entry.Timestamp),
		}
		for k, v := range entry.Context {
			fields = append(fields, zap.Any(k, v))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "received": len(req.Logs)})
}
