package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventease/ticketing/pkg/database"
	"github.com/eventease/ticketing/pkg/redis"
)

// HealthHandler serves liveness/readiness probes and pool stats
type HealthHandler struct {
	db  *database.PostgresDB
	rdb *redis.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.PostgresDB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /ready — checks backing stores
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": err.Error()})
			return
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Metrics handles GET /metrics — connection pool statistics
func (h *HealthHandler) Metrics(c *gin.Context) {
	stats := gin.H{}
	if h.db != nil {
		poolStats := h.db.Stats()
		stats["postgres"] = gin.H{
			"total_conns":    poolStats.TotalConns(),
			"idle_conns":     poolStats.IdleConns(),
			"acquired_conns": poolStats.AcquiredConns(),
			"max_conns":      poolStats.MaxConns(),
		}
	}
	c.JSON(http.StatusOK, stats)
}
