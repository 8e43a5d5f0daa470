package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/domain"
	"github.com/spec-kit/onsite-notifier/internal/observability"
)

// ConversationFetcher is the single read-API call used for enrichment.
type ConversationFetcher interface {
	GetConversation(ctx context.Context, id string) (*domain.TicketSnapshot, error)
}

// Enricher merges the webhook snapshot with the authoritative conversation
// record fetched from the helpdesk.
type Enricher struct {
	fetcher ConversationFetcher
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEnricher creates an enricher with a bounded fetch timeout.
func NewEnricher(fetcher ConversationFetcher, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Enricher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Enricher{fetcher: fetcher, timeout: timeout, logger: logger, metrics: metrics}
}

// Enrich performs exactly one bounded fetch and merges the result. Any
// failure is logged and the webhook snapshot is returned unchanged;
// enrichment is never fatal to the pipeline.
func (e *Enricher) Enrich(ctx context.Context, snapshot domain.TicketSnapshot) domain.TicketSnapshot {
	if e.fetcher == nil {
		return snapshot
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	fetched, err := e.fetcher.GetConversation(fetchCtx, snapshot.ID)
	if err != nil {
		e.metrics.RecordEnrichmentFailure()
		e.logger.Warn("enrichment fetch failed, using webhook snapshot",
			zap.String("ticket_id", snapshot.ID),
			zap.Error(err))
		return snapshot
	}
	if fetched == nil {
		e.metrics.RecordEnrichmentFailure()
		e.logger.Warn("enrichment returned empty record, using webhook snapshot",
			zap.String("ticket_id", snapshot.ID))
		return snapshot
	}
	return mergeSnapshots(snapshot, *fetched)
}

// mergeSnapshots combines a webhook snapshot with the fetched record into a
// new snapshot. Conversation parts come from the fetched record when it has
// any (the read API is ground truth for the thread); state, team assignment
// and custom attributes default to the fetched record but are overridden by
// webhook values, since webhook delivery is event-specific and occasionally
// leads the read API.
func mergeSnapshots(webhook, fetched domain.TicketSnapshot) domain.TicketSnapshot {
	merged := fetched.Clone()
	if merged.ID == "" {
		merged.ID = webhook.ID
	}
	if len(merged.Parts) == 0 && len(webhook.Parts) > 0 {
		merged.Parts = append([]domain.ConversationPart(nil), webhook.Parts...)
	}
	if webhook.State != "" {
		merged.State = webhook.State
	}
	if webhook.TeamAssigneeID != "" {
		merged.TeamAssigneeID = webhook.TeamAssigneeID
	}
	if len(webhook.CustomAttributes) > 0 {
		if merged.CustomAttributes == nil {
			merged.CustomAttributes = make(map[string]any, len(webhook.CustomAttributes))
		}
		for k, v := range webhook.CustomAttributes {
			merged.CustomAttributes[k] = v
		}
	}
	return merged
}
