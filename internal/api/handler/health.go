package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finledger/ledger-service/internal/api/dto"
	"github.com/finledger/ledger-service/internal/pkg/cache"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db      *gorm.DB
	cache   cache.Cache
	version string
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(db *gorm.DB, cache cache.Cache, version string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, version: version}
}

// Health returns a basic liveness response plus database reachability
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.pingDatabase(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
			Status:  "unhealthy",
			Message: "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Status returns detailed system status
// GET /api/v1/status
func (h *HealthHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := dto.StatusResponse{
		Status:  "healthy",
		Version: h.version,
		Services: dto.ServiceStatuses{
			Database: h.databaseStatus(ctx),
			Redis:    h.redisStatus(ctx),
		},
	}

	if response.Services.Database.Status != "healthy" {
		response.Status = "unhealthy"
	} else if response.Services.Redis.Status != "healthy" {
		response.Status = "degraded"
	}

	code := http.StatusOK
	if response.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func (h *HealthHandler) pingDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthHandler) databaseStatus(ctx context.Context) dto.ServiceStatus {
	start := time.Now()
	if err := h.pingDatabase(ctx); err != nil {
		return dto.ServiceStatus{Status: "unhealthy", Message: err.Error()}
	}
	return dto.ServiceStatus{
		Status:  "healthy",
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
}

func (h *HealthHandler) redisStatus(ctx context.Context) dto.ServiceStatus {
	if h.cache == nil {
		return dto.ServiceStatus{Status: "degraded", Message: "cache not configured"}
	}

	start := time.Now()
	if err := h.cache.Ping(ctx); err != nil {
		return dto.ServiceStatus{Status: "unhealthy", Message: err.Error()}
	}
	return dto.ServiceStatus{
		Status:  "healthy",
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
}
