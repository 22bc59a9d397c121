package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echoexam/echo-backend/internal/registry"
	"github.com/echoexam/echo-backend/internal/response"
)

// SystemHandler serves operational endpoints. Deeper runtime metrics
// live on the prometheus scrape endpoint.
type SystemHandler struct {
	store     registry.Store
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store registry.Store) *SystemHandler {
	return &SystemHandler{
		store:     store,
		startTime: time.Now(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":        "ok",
		"uptime":        formatDuration(time.Since(h.startTime)),
		"live_sessions": h.store.Len(),
		"go_version":    runtime.Version(),
	})
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
