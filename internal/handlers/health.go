package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/response"
)

// HealthHandler reports process liveness and database reachability.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(requestContext(c))
	}
	if err != nil {
		response.Error(c, apperrors.New("HEALTH_DB_UNREACHABLE", "Database unreachable", http.StatusServiceUnavailable).WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
