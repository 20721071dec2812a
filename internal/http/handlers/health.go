package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		log: log.With("handler", "HealthHandler"),
		db:  db,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.log.Error("healthcheck db ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
