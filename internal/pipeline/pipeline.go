package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
	"github.com/spec-kit/onsite-notifier/internal/observability"
)

// Pipeline wires the classify → enrich → compose → resolve → dispatch flow
// for one webhook event. Runs share no mutable state.
type Pipeline struct {
	classifier *Classifier
	enricher   *Enricher
	composer   *Composer
	dispatcher *Dispatcher
	chat       config.ChatConfig
	format     domain.NotificationFormat
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// Dependencies bundles the pipeline's external collaborators.
type Dependencies struct {
	Fetcher ConversationFetcher
	Sender  Sender
}

// New constructs the pipeline from configuration and collaborators.
func New(cfg *config.Config, deps Dependencies, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	format := domain.NotificationFormat(cfg.Notification.Format)
	if format != domain.FormatText {
		format = domain.FormatCard
	}
	return &Pipeline{
		classifier: NewClassifier(cfg.Program, logger),
		enricher:   NewEnricher(deps.Fetcher, cfg.Helpdesk.FetchTimeout(), logger, metrics),
		composer:   NewComposer(cfg.Helpdesk),
		dispatcher: NewDispatcher(deps.Sender, cfg.Chat.SendTimeout(), logger),
		chat:       cfg.Chat,
		format:     format,
		logger:     logger,
		metrics:    metrics,
	}
}

// Result summarizes one pipeline run for logging and tests. Nothing here is
// persisted.
type Result struct {
	RunID    string
	Verdict  domain.ClassificationVerdict
	Outcomes []domain.DispatchOutcome
}

// Handle processes one inbound event end to end. It never returns an error:
// every failure inside the pipeline is soft, logged, and absorbed, so the
// ingress layer can acknowledge the webhook unconditionally.
func (p *Pipeline) Handle(ctx context.Context, event domain.TicketEvent) Result {
	result := Result{RunID: uuid.NewString()}
	logger := p.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("ticket_id", event.Ticket.ID),
		zap.String("event_kind", string(event.Kind)),
		zap.Time("received_at", event.ReceivedAt))
	p.metrics.RecordEvent()

	if !event.Kind.Known() {
		logger.Debug("unhandled event kind, dropped")
		return result
	}

	result.Verdict = p.classifier.Classify(event.Ticket)
	if !result.Verdict.Matched {
		logger.Debug("event outside monitored program, dropped")
		return result
	}
	p.metrics.RecordMatch()
	logger.Info("event matched monitored program", zap.String("rule", result.Verdict.Rule))

	enriched := p.enricher.Enrich(ctx, event.Ticket)
	notification := p.composer.Compose(enriched, event.Kind, event.Actor, p.format)

	destinations := ResolveDestinations(p.chat)
	if len(destinations) == 0 {
		logger.Warn("no destinations configured, nothing to notify")
		return result
	}

	result.Outcomes = p.dispatcher.Dispatch(ctx, notification, destinations)
	for _, outcome := range result.Outcomes {
		p.metrics.RecordDispatch(outcome.Succeeded())
	}
	return result
}
