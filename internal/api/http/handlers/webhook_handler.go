package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/helpdesk"
	"github.com/spec-kit/onsite-notifier/internal/pipeline"
	apperrors "github.com/spec-kit/onsite-notifier/pkg/util"
)

// WebhookHandler is the helpdesk webhook front door.
type WebhookHandler struct {
	pipeline *pipeline.Pipeline
	token    string
	logger   *zap.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(p *pipeline.Pipeline, cfg config.WebhookConfig, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{pipeline: p, token: cfg.Token, logger: logger}
}

// Handle POST /webhooks/helpdesk. The helpdesk only needs to know the
// delivery was received: once the envelope parses, pipeline failures are
// absorbed and the response is always an acknowledgment.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if config.Configured(h.token) {
		supplied := c.Get("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
			return apperrors.NewUnauthorized("invalid webhook token")
		}
	}

	event, err := helpdesk.ParseEvent(c.Body())
	if err != nil {
		h.logger.Warn("rejected webhook delivery", zap.Error(err))
		return apperrors.NewValidationError("invalid webhook payload", map[string]any{"reason": err.Error()})
	}

	result := h.pipeline.Handle(c.UserContext(), *event)

	return c.JSON(fiber.Map{
		"status":    "received",
		"ticket_id": event.Ticket.ID,
		"run_id":    result.RunID,
		"matched":   result.Verdict.Matched,
	})
}
