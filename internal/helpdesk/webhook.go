package helpdesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// Envelope is the outer webhook JSON. Plain deliveries carry the event in
// Type; generic notification envelopes additionally carry Topic, which takes
// precedence when present.
type Envelope struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		Item conversationPayload `json:"item"`
	} `json:"data"`
	Actor *authorPayload `json:"actor"`
}

// topicKinds maps helpdesk webhook topics to event kinds.
var topicKinds = map[string]domain.EventKind{
	"conversation.opened":              domain.EventOpened,
	"conversation.user.created":        domain.EventOpened,
	"conversation.assigned":            domain.EventAssigned,
	"conversation.admin.assigned":      domain.EventAssigned,
	"conversation.replied":             domain.EventReplied,
	"conversation.user.replied":        domain.EventReplied,
	"conversation.admin.replied":       domain.EventReplied,
	"conversation.note.added":          domain.EventNoteAdded,
	"conversation.admin.noted":         domain.EventNoteAdded,
	"conversation.closed":              domain.EventClosed,
	"conversation.admin.closed":        domain.EventClosed,
	"conversation.snoozed":             domain.EventSnoozed,
	"conversation.admin.snoozed":       domain.EventSnoozed,
	"conversation.unsnoozed":           domain.EventUnsnoozed,
	"conversation.admin.unsnoozed":     domain.EventUnsnoozed,
	"conversation.state.changed":       domain.EventStateChanged,
	"conversation.admin.state.changed": domain.EventStateChanged,
}

// KindFromTopic maps a webhook discriminator to an event kind. Unknown
// discriminators pass through unchanged so the pipeline can drop them with
// full context in the logs.
func KindFromTopic(topic string) domain.EventKind {
	t := strings.ToLower(strings.TrimSpace(topic))
	if kind, ok := topicKinds[t]; ok {
		return kind
	}
	if kind := domain.EventKind(t); kind.Known() {
		return kind
	}
	return domain.EventKind(t)
}

// ParseEvent decodes a webhook delivery into a TicketEvent.
func ParseEvent(body []byte) (*domain.TicketEvent, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}

	discriminator := env.Type
	if env.Topic != "" {
		discriminator = env.Topic
	}
	if discriminator == "" {
		return nil, errors.New("webhook envelope missing type and topic")
	}

	snap := env.Data.Item.toSnapshot()
	if snap.ID == "" {
		return nil, errors.New("webhook payload missing conversation id")
	}

	event := &domain.TicketEvent{
		Kind:       KindFromTopic(discriminator),
		Ticket:     snap,
		ReceivedAt: time.Now().UTC(),
	}
	if env.Actor != nil && (env.Actor.Name != "" || env.Actor.Email != "") {
		event.Actor = &domain.Actor{
			ID:    idString(env.Actor.ID),
			Name:  env.Actor.Name,
			Email: env.Actor.Email,
		}
	}
	return event, nil
}
