package domain

import "time"

// EventKind enumerates the webhook topics handled by the pipeline.
type EventKind string

const (
	EventOpened       EventKind = "opened"
	EventAssigned     EventKind = "assigned"
	EventReplied      EventKind = "replied"
	EventNoteAdded    EventKind = "note_added"
	EventClosed       EventKind = "closed"
	EventSnoozed      EventKind = "snoozed"
	EventUnsnoozed    EventKind = "unsnoozed"
	EventStateChanged EventKind = "state_changed"
)

// Known reports whether the kind is one of the enumerated topics.
func (k EventKind) Known() bool {
	switch k {
	case EventOpened, EventAssigned, EventReplied, EventNoteAdded,
		EventClosed, EventSnoozed, EventUnsnoozed, EventStateChanged:
		return true
	}
	return false
}

// Actor identifies the admin or assignee behind an event.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// TicketEvent is one parsed inbound webhook delivery. Events are immutable
// and discarded once the pipeline run completes.
type TicketEvent struct {
	Kind       EventKind
	Ticket     TicketSnapshot
	Actor      *Actor
	ReceivedAt time.Time
}
