package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/limccn/omi-cache-manager/internal/api/dto"
)

// Pinger runs a low-level cache command.
type Pinger interface {
	Execute(ctx context.Context, args ...any) (any, error)
	BackendName() string
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cache Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cache Pinger) *HealthHandler {
	return &HealthHandler{cache: cache}
}

func (h *HealthHandler) ping(ctx context.Context) error {
	_, err := h.cache.Execute(ctx, "PING")
	if err != nil {
		log.Warn().Err(err).Str("backend", h.cache.BackendName()).Msg("cache ping failed")
	}
	return err
}

// Health handles the /health endpoint.
// @Summary Health check
// @Description Returns the overall health status and component statuses
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Service unhealthy"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status, statusCode, component := "healthy", http.StatusOK, "healthy"
	if err := h.ping(c.Request.Context()); err != nil {
		status, statusCode, component = "unhealthy", http.StatusServiceUnavailable, "unhealthy"
	}

	c.JSON(statusCode, dto.HealthResponse{
		Status: status,
		Components: map[string]string{
			"cache":   component,
			"backend": h.cache.BackendName(),
		},
	})
}

// Ready handles the /ready endpoint.
// @Summary Readiness check
// @Description Returns 200 if the cache backend answers
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service ready"
// @Failure 503 {object} map[string]string "Service not ready"
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "cache unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Live handles the /live endpoint.
// @Summary Liveness check
// @Description Returns 200 if the service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service alive"
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
