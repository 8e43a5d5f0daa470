package domain

import (
	"strconv"
	"strings"
	"time"
)

// TicketState enumerates lifecycle states reported by the helpdesk.
type TicketState string

const (
	TicketStateOpen    TicketState = "open"
	TicketStateClosed  TicketState = "closed"
	TicketStateSnoozed TicketState = "snoozed"
)

// ConversationPart is a single entry in a ticket's conversation thread.
type ConversationPart struct {
	Author    string
	PartType  string
	Body      string
	CreatedAt time.Time
}

// TicketSnapshot is the pipeline's view of a helpdesk conversation, whether
// it arrived in a webhook delivery or from the read API. Snapshots are never
// mutated in place; enrichment produces a new merged snapshot.
type TicketSnapshot struct {
	ID               string
	State            TicketState
	TeamAssigneeID   string
	CustomAttributes map[string]any
	Parts            []ConversationPart
}

// Attribute returns the named custom attribute as a string. Boolean and
// numeric values are rendered; empty or unsupported values report absent.
func (s TicketSnapshot) Attribute(name string) (string, bool) {
	raw, ok := s.CustomAttributes[name]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

var affirmativeValues = map[string]bool{
	"true": true,
	"yes":  true,
	"y":    true,
	"1":    true,
}

// AttributeAffirmative reports whether the named attribute holds an
// affirmative value such as "true", "yes" or boolean true.
func (s TicketSnapshot) AttributeAffirmative(name string) bool {
	v, ok := s.Attribute(name)
	return ok && affirmativeValues[strings.ToLower(v)]
}

// Clone returns a copy whose attribute map and part slice are independent of
// the receiver's.
func (s TicketSnapshot) Clone() TicketSnapshot {
	out := s
	if s.CustomAttributes != nil {
		out.CustomAttributes = make(map[string]any, len(s.CustomAttributes))
		for k, v := range s.CustomAttributes {
			out.CustomAttributes[k] = v
		}
	}
	if s.Parts != nil {
		out.Parts = append([]ConversationPart(nil), s.Parts...)
	}
	return out
}
