package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
	"github.com/spec-kit/onsite-notifier/internal/observability"
)

type captureSender struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (s *captureSender) Send(ctx context.Context, dest domain.Destination, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Helpdesk: config.HelpdeskConfig{
			BaseURL:             "https://helpdesk.example.com",
			FetchTimeoutSeconds: 1,
		},
		Chat: config.ChatConfig{
			SendTimeoutSeconds: 1,
			Channels:           config.ChannelConfig{Onsite: "oc_onsite"},
		},
		Program: config.ProgramConfig{TeamID: "42"},
		Notification: config.NotificationConfig{
			Format: "text",
		},
	}
}

func newTestPipeline(cfg *config.Config, fetcher ConversationFetcher, sender Sender) (*Pipeline, *observability.Metrics) {
	metrics := observability.NewMetrics()
	return New(cfg, Dependencies{Fetcher: fetcher, Sender: sender}, zap.NewNop(), metrics), metrics
}

func TestPipelineMatchedEventNotifies(t *testing.T) {
	sender := &captureSender{}
	pipe, metrics := newTestPipeline(testConfig(), &stubFetcher{}, sender)

	result := pipe.Handle(context.Background(), domain.TicketEvent{
		Kind: domain.EventOpened,
		Ticket: domain.TicketSnapshot{
			ID:             "12345",
			State:          domain.TicketStateOpen,
			TeamAssigneeID: "42",
		},
	})

	if !result.Verdict.Matched || result.Verdict.Rule != "team-assignment" {
		t.Fatalf("expected team-assignment match, got %+v", result.Verdict)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sender.sent))
	}
	text := sender.sent[0].Text
	if !strings.Contains(text, "New Onsite Support Request") {
		t.Errorf("expected new-request title, got:\n%s", text)
	}
	if !strings.Contains(text, "12345") {
		t.Errorf("expected ticket id in body, got:\n%s", text)
	}

	snap := metrics.SnapshotCounters()
	if snap.EventsReceived != 1 || snap.EventsMatched != 1 || snap.DispatchSucceeded != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
}

func TestPipelineUnmatchedEventIsDropped(t *testing.T) {
	sender := &captureSender{}
	fetcher := &stubFetcher{}
	pipe, metrics := newTestPipeline(testConfig(), fetcher, sender)

	result := pipe.Handle(context.Background(), domain.TicketEvent{
		Kind: domain.EventReplied,
		Ticket: domain.TicketSnapshot{
			ID:               "999",
			TeamAssigneeID:   "7",
			CustomAttributes: map[string]any{"Ticket Type": "Billing"},
			Parts:            []domain.ConversationPart{{Body: "refund please"}},
		},
	})

	if result.Verdict.Matched {
		t.Fatalf("expected no-match, got %+v", result.Verdict)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected zero dispatches, got %d", len(sender.sent))
	}
	if fetcher.calls != 0 {
		t.Errorf("expected no enrichment for dropped event, got %d fetches", fetcher.calls)
	}
	if snap := metrics.SnapshotCounters(); snap.EventsMatched != 0 {
		t.Errorf("unexpected match counter: %+v", snap)
	}
}

func TestPipelineUnknownKindIsDropped(t *testing.T) {
	sender := &captureSender{}
	fetcher := &stubFetcher{}
	pipe, metrics := newTestPipeline(testConfig(), fetcher, sender)

	// Ticket belongs to the monitored team, but the topic is one the
	// pipeline does not handle.
	result := pipe.Handle(context.Background(), domain.TicketEvent{
		Kind:   domain.EventKind("conversation.tag.added"),
		Ticket: domain.TicketSnapshot{ID: "800", TeamAssigneeID: "42"},
	})

	if result.Verdict.Matched {
		t.Fatalf("expected unknown kind to drop before classification, got %+v", result.Verdict)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected zero dispatches for unknown kind, got %d", len(sender.sent))
	}
	if fetcher.calls != 0 {
		t.Errorf("expected no enrichment for unknown kind, got %d fetches", fetcher.calls)
	}
	if snap := metrics.SnapshotCounters(); snap.EventsReceived != 1 || snap.EventsMatched != 0 {
		t.Errorf("unexpected counters: %+v", snap)
	}
}

func TestPipelineSurvivesEnrichmentFailure(t *testing.T) {
	sender := &captureSender{}
	fetcher := &stubFetcher{err: errors.New("network down")}
	pipe, metrics := newTestPipeline(testConfig(), fetcher, sender)

	result := pipe.Handle(context.Background(), domain.TicketEvent{
		Kind: domain.EventOpened,
		Ticket: domain.TicketSnapshot{
			ID:               "500",
			TeamAssigneeID:   "42",
			CustomAttributes: map[string]any{"Merchant Name": "Acme"},
		},
	})

	if len(result.Outcomes) != 1 || !result.Outcomes[0].Succeeded() {
		t.Fatalf("expected successful dispatch from webhook snapshot, got %+v", result.Outcomes)
	}
	if !strings.Contains(sender.sent[0].Text, "Merchant: Acme") {
		t.Errorf("expected webhook snapshot fields in notification:\n%s", sender.sent[0].Text)
	}
	if snap := metrics.SnapshotCounters(); snap.EnrichmentFailures != 1 {
		t.Errorf("expected enrichment failure recorded, got %+v", snap)
	}
}

func TestPipelineExpressRequestRendering(t *testing.T) {
	sender := &captureSender{}
	pipe, _ := newTestPipeline(testConfig(), &stubFetcher{}, sender)

	pipe.Handle(context.Background(), domain.TicketEvent{
		Kind: domain.EventOpened,
		Ticket: domain.TicketSnapshot{
			ID:               "600",
			TeamAssigneeID:   "42",
			CustomAttributes: map[string]any{"Express Request": "yes"},
		},
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Text, "⚡ EXPRESS") {
		t.Errorf("expected express marker, got:\n%s", sender.sent[0].Text)
	}
}

func TestPipelineNoDestinationsWarnsAndReturns(t *testing.T) {
	cfg := testConfig()
	cfg.Chat.Channels = config.ChannelConfig{Onsite: "REPLACE_ME"}
	sender := &captureSender{}
	pipe, _ := newTestPipeline(cfg, &stubFetcher{}, sender)

	result := pipe.Handle(context.Background(), domain.TicketEvent{
		Kind:   domain.EventOpened,
		Ticket: domain.TicketSnapshot{ID: "700", TeamAssigneeID: "42"},
	})

	if !result.Verdict.Matched {
		t.Fatalf("expected match, got %+v", result.Verdict)
	}
	if len(result.Outcomes) != 0 || len(sender.sent) != 0 {
		t.Errorf("expected no dispatch with no destinations, got %+v", result.Outcomes)
	}
}
