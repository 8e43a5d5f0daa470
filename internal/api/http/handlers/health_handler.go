package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CredentialPinger verifies outbound chat credentials are usable.
type CredentialPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	chat        CredentialPinger
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, chat CredentialPinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, chat: chat}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the chat platform credentials.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.chat.Ping(ctx); err != nil {
		depStatus["chat"] = err.Error()
		ready = false
	} else {
		depStatus["chat"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
