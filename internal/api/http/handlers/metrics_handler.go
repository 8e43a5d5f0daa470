package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/onsite-notifier/internal/observability"
)

// MetricsHandler exposes the in-memory counters for operators.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.SnapshotCounters())
}
