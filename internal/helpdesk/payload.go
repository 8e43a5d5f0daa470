package helpdesk

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// conversationPayload mirrors the helpdesk's conversation JSON shape. Webhook
// deliveries and the read API use the same shape, so both decode through it.
type conversationPayload struct {
	ID               any            `json:"id"`
	State            string         `json:"state"`
	TeamAssigneeID   any            `json:"team_assignee_id"`
	CustomAttributes map[string]any `json:"custom_attributes"`
	Parts            []partPayload  `json:"conversation_parts"`
}

type partPayload struct {
	PartType  string         `json:"part_type"`
	Body      string         `json:"body"`
	CreatedAt int64          `json:"created_at"`
	Author    *authorPayload `json:"author"`
}

type authorPayload struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p conversationPayload) toSnapshot() domain.TicketSnapshot {
	snap := domain.TicketSnapshot{
		ID:             idString(p.ID),
		State:          domain.TicketState(strings.ToLower(strings.TrimSpace(p.State))),
		TeamAssigneeID: idString(p.TeamAssigneeID),
	}
	if len(p.CustomAttributes) > 0 {
		snap.CustomAttributes = make(map[string]any, len(p.CustomAttributes))
		for k, v := range p.CustomAttributes {
			snap.CustomAttributes[k] = v
		}
	}
	for _, part := range p.Parts {
		cp := domain.ConversationPart{
			PartType: part.PartType,
			Body:     part.Body,
		}
		if part.CreatedAt > 0 {
			cp.CreatedAt = time.Unix(part.CreatedAt, 0).UTC()
		}
		if part.Author != nil {
			cp.Author = part.Author.Name
		}
		snap.Parts = append(snap.Parts, cp)
	}
	return snap
}

// idString renders identifiers uniformly; the platform sends them as strings
// in some payloads and as numbers in others.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}
