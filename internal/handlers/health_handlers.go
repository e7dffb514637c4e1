package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandlers exposes liveness and readiness endpoints
type HealthHandlers struct {
	db *gorm.DB
}

// NewHealthHandlers creates health check handlers
func NewHealthHandlers(db *gorm.DB) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health reports process liveness
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront-service",
	})
}

// Ready reports whether the database is reachable
func (h *HealthHandlers) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
