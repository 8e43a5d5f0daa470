package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/domain"
)

type stubFetcher struct {
	snapshot *domain.TicketSnapshot
	err      error
	calls    int
}

func (s *stubFetcher) GetConversation(ctx context.Context, id string) (*domain.TicketSnapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

func TestEnrichMergesFetchedRecord(t *testing.T) {
	fetched := &domain.TicketSnapshot{
		ID:             "100",
		State:          domain.TicketStateOpen,
		TeamAssigneeID: "7",
		CustomAttributes: map[string]any{
			"Merchant Name": "Acme Noodles",
			"Location":      "Downtown",
		},
		Parts: []domain.ConversationPart{
			{Author: "Alice", Body: "original request", CreatedAt: time.Unix(1000, 0)},
			{Author: "Bob", Body: "on our way", CreatedAt: time.Unix(2000, 0)},
		},
	}
	fetcher := &stubFetcher{snapshot: fetched}
	enricher := NewEnricher(fetcher, time.Second, zap.NewNop(), nil)

	webhook := domain.TicketSnapshot{
		ID:             "100",
		TeamAssigneeID: "42",
		CustomAttributes: map[string]any{
			"Location": "Uptown",
		},
		Parts: []domain.ConversationPart{{Author: "Alice", Body: "stale copy"}},
	}

	merged := enricher.Enrich(context.Background(), webhook)

	if fetcher.calls != 1 {
		t.Errorf("expected exactly one fetch, got %d", fetcher.calls)
	}
	// Fetched parts are ground truth when non-empty.
	if len(merged.Parts) != 2 || merged.Parts[1].Body != "on our way" {
		t.Errorf("expected fetched conversation parts, got %+v", merged.Parts)
	}
	// Webhook fields override fetched ones when both are present.
	if merged.TeamAssigneeID != "42" {
		t.Errorf("expected webhook team id to win, got %q", merged.TeamAssigneeID)
	}
	if v, _ := merged.Attribute("Location"); v != "Uptown" {
		t.Errorf("expected webhook attribute to win, got %q", v)
	}
	// Fetched-only fields survive.
	if v, _ := merged.Attribute("Merchant Name"); v != "Acme Noodles" {
		t.Errorf("expected fetched-only attribute to survive, got %q", v)
	}
	// Inputs are not mutated.
	if v, _ := fetched.Attribute("Location"); v != "Downtown" {
		t.Errorf("fetched snapshot mutated: Location = %q", v)
	}
	if webhook.Parts[0].Body != "stale copy" {
		t.Errorf("webhook snapshot mutated: %+v", webhook.Parts)
	}
}

func TestEnrichFailureReturnsSnapshotUnchanged(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	enricher := NewEnricher(fetcher, time.Second, zap.NewNop(), nil)

	webhook := domain.TicketSnapshot{
		ID:               "200",
		State:            domain.TicketStateOpen,
		CustomAttributes: map[string]any{"Merchant Name": "Acme"},
	}
	got := enricher.Enrich(context.Background(), webhook)
	if !reflect.DeepEqual(got, webhook) {
		t.Errorf("expected unchanged snapshot on fetch failure, got %+v", got)
	}
}

func TestEnrichEmptyRecordReturnsSnapshotUnchanged(t *testing.T) {
	enricher := NewEnricher(&stubFetcher{}, time.Second, zap.NewNop(), nil)

	webhook := domain.TicketSnapshot{ID: "300"}
	got := enricher.Enrich(context.Background(), webhook)
	if !reflect.DeepEqual(got, webhook) {
		t.Errorf("expected unchanged snapshot on empty record, got %+v", got)
	}
}

func TestMergeSnapshotsNonOverlappingIsCommutative(t *testing.T) {
	a := domain.TicketSnapshot{
		ID:               "1",
		CustomAttributes: map[string]any{"Merchant Name": "Acme"},
	}
	b := domain.TicketSnapshot{
		ID:               "1",
		CustomAttributes: map[string]any{"Location": "Downtown"},
	}

	ab := mergeSnapshots(a, b)
	ba := mergeSnapshots(b, a)
	if !reflect.DeepEqual(ab.CustomAttributes, ba.CustomAttributes) {
		t.Errorf("merge not commutative on non-overlapping attributes: %+v vs %+v", ab.CustomAttributes, ba.CustomAttributes)
	}
}

func TestMergeSnapshotsPrefersWebhookOnlyParts(t *testing.T) {
	webhook := domain.TicketSnapshot{
		ID:    "1",
		Parts: []domain.ConversationPart{{Body: "only copy"}},
	}
	fetched := domain.TicketSnapshot{ID: "1"}

	merged := mergeSnapshots(webhook, fetched)
	if len(merged.Parts) != 1 || merged.Parts[0].Body != "only copy" {
		t.Errorf("expected webhook parts to fill empty fetched thread, got %+v", merged.Parts)
	}
}
