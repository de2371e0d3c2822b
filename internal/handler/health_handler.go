package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/database"
)

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	db      *database.PostgresDB
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.PostgresDB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Check responds 200 when the service and its database are reachable
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "up"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
	}

	c.JSON(status, gin.H{
		"status":   httpStatusText(status),
		"version":  h.version,
		"database": dbStatus,
	})
}

func httpStatusText(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
