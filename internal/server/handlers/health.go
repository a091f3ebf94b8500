package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/infrastructure/rabbit"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        *database.DBManager
	publisher rabbit.ITransactionPublisher
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DBManager, publisher rabbit.ITransactionPublisher) *HealthHandler {
	return &HealthHandler{db: db, publisher: publisher}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "walletd",
		"version":   "1.0.0",
		"timestamp": time.Now(),
	})
}

// Ready reports whether the database and the broker are reachable
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}
	if !h.publisher.Alive() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "broker unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"service":   "walletd",
		"version":   "1.0.0",
		"timestamp": time.Now(),
	})
}
