package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/store"
)

// HealthHandler reports database reachability and the stats queue mode.
type HealthHandler struct {
	store *store.Store
	queue services.StatsQueue
}

func NewHealthHandler(st *store.Store, queue services.StatsQueue) *HealthHandler {
	return &HealthHandler{store: st, queue: queue}
}

// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	if err := h.store.Ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "studygrouphub",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
		},
	})
}
