package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahulvs07/complyark-data-shield/internal/service"
	"github.com/rahulvs07/complyark-data-shield/pkg/response"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  map[string]ReadinessCheck
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]ReadinessCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check and fails if any does.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Snapshot returns in-process counters as JSON.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
