package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// Rendering bounds for the conversation excerpt.
const (
	excerptPartLimit  = 5
	excerptBodyBudget = 500
	ellipsisMarker    = "..."

	placeholderUnknown = "Unknown"
	placeholderNoBody  = "No content"
)

// Program-specific custom attributes surfaced in notifications.
const (
	attrExpress      = "Express Request"
	attrMerchantName = "Merchant Name"
	attrLocation     = "Location"
	attrContact      = "Contact Number"
	attrAddress      = "Address"
	attrDescription  = "Description"
)

// eventDescriptor drives per-kind rendering. Adding an event kind is a table
// change, not new branching logic.
type eventDescriptor struct {
	Icon      string
	Title     string
	Template  string
	ActorVerb string
}

var eventDescriptors = map[domain.EventKind]eventDescriptor{
	domain.EventOpened:       {Icon: "🆕", Title: "New Onsite Support Request", Template: "blue", ActorVerb: "Opened by"},
	domain.EventAssigned:     {Icon: "👤", Title: "Onsite Request Assigned", Template: "turquoise", ActorVerb: "Assigned to"},
	domain.EventReplied:      {Icon: "💬", Title: "New Reply on Onsite Request", Template: "green", ActorVerb: "Reply from"},
	domain.EventNoteAdded:    {Icon: "📝", Title: "Internal Note on Onsite Request", Template: "grey", ActorVerb: "Note by"},
	domain.EventClosed:       {Icon: "✅", Title: "Onsite Request Closed", Template: "green", ActorVerb: "Closed by"},
	domain.EventSnoozed:      {Icon: "😴", Title: "Onsite Request Snoozed", Template: "yellow", ActorVerb: "Snoozed by"},
	domain.EventUnsnoozed:    {Icon: "⏰", Title: "Onsite Request Unsnoozed", Template: "orange", ActorVerb: "Unsnoozed by"},
	domain.EventStateChanged: {Icon: "🔄", Title: "Onsite Request State Changed", Template: "purple", ActorVerb: "Updated by"},
}

var defaultDescriptor = eventDescriptor{Icon: "🔔", Title: "Onsite Request Update", Template: "blue", ActorVerb: "Updated by"}

func descriptorFor(kind domain.EventKind) eventDescriptor {
	if d, ok := eventDescriptors[kind]; ok {
		return d
	}
	return defaultDescriptor
}

// Composer renders enriched tickets into notifications.
type Composer struct {
	helpdeskURL string
}

// NewComposer creates a composer that deep-links into the given helpdesk.
func NewComposer(cfg config.HelpdeskConfig) *Composer {
	return &Composer{helpdeskURL: strings.TrimRight(cfg.BaseURL, "/")}
}

// Compose renders the ticket for the given event kind. Composition is total:
// missing fields render as placeholders rather than breaking the layout.
func (c *Composer) Compose(ticket domain.TicketSnapshot, kind domain.EventKind, actor *domain.Actor, format domain.NotificationFormat) domain.Notification {
	if format == domain.FormatCard {
		return domain.Notification{Format: domain.FormatCard, Card: c.composeCard(ticket, kind, actor)}
	}
	return domain.Notification{Format: domain.FormatText, Text: c.composeText(ticket, kind, actor)}
}

func (c *Composer) composeText(ticket domain.TicketSnapshot, kind domain.EventKind, actor *domain.Actor) string {
	d := descriptorFor(kind)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n\n", d.Icon, d.Title))
	sb.WriteString(fmt.Sprintf("Ticket: #%s\n", orUnknown(ticket.ID)))
	sb.WriteString(fmt.Sprintf("State: %s\n", orUnknown(string(ticket.State))))
	sb.WriteString(fmt.Sprintf("Priority: %s\n", priorityLabel(ticket)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Merchant: %s\n", attrOrUnknown(ticket, attrMerchantName)))
	sb.WriteString(fmt.Sprintf("Location: %s\n", attrOrUnknown(ticket, attrLocation)))
	sb.WriteString(fmt.Sprintf("Contact: %s\n", attrOrUnknown(ticket, attrContact)))
	sb.WriteString(fmt.Sprintf("Address: %s\n", attrOrUnknown(ticket, attrAddress)))
	sb.WriteString(fmt.Sprintf("Description: %s\n", attrOrUnknown(ticket, attrDescription)))
	sb.WriteString("\nRecent activity:\n")
	for _, line := range excerptLines(ticket.Parts) {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(actorLine(d, actor) + "\n")
	sb.WriteString(fmt.Sprintf("Open ticket: %s\n", c.ticketURL(ticket.ID)))
	return sb.String()
}

func (c *Composer) composeCard(ticket domain.TicketSnapshot, kind domain.EventKind, actor *domain.Actor) *domain.Card {
	d := descriptorFor(kind)

	status := domain.CardBlock{Lines: []string{
		fmt.Sprintf("**State:** %s", orUnknown(string(ticket.State))),
		fmt.Sprintf("**Priority:** %s", priorityLabel(ticket)),
	}}
	details := domain.CardBlock{Lines: []string{
		fmt.Sprintf("**Merchant:** %s", attrOrUnknown(ticket, attrMerchantName)),
		fmt.Sprintf("**Location:** %s", attrOrUnknown(ticket, attrLocation)),
		fmt.Sprintf("**Contact:** %s", attrOrUnknown(ticket, attrContact)),
		fmt.Sprintf("**Address:** %s", attrOrUnknown(ticket, attrAddress)),
	}}
	description := domain.CardBlock{Lines: []string{
		"**Description**",
		attrOrUnknown(ticket, attrDescription),
	}}
	activity := domain.CardBlock{Lines: append([]string{"**Recent activity**"}, excerptLines(ticket.Parts)...)}
	footer := domain.CardBlock{Lines: []string{
		fmt.Sprintf("%s · Last updated %s", actorLine(d, actor), lastUpdated(ticket.Parts)),
	}}

	return &domain.Card{
		Title:    fmt.Sprintf("%s %s", d.Icon, d.Title),
		Template: d.Template,
		Blocks:   []domain.CardBlock{status, details, description, activity, footer},
		Action:   domain.CardAction{Text: "Open Ticket", URL: c.ticketURL(ticket.ID)},
	}
}

func (c *Composer) ticketURL(id string) string {
	return fmt.Sprintf("%s/conversations/%s", c.helpdeskURL, id)
}

// excerptLines returns the most recent conversation parts, newest first, each
// body truncated to the excerpt budget.
func excerptLines(parts []domain.ConversationPart) []string {
	if len(parts) == 0 {
		return []string{"- " + placeholderNoBody}
	}
	start := len(parts) - excerptPartLimit
	if start < 0 {
		start = 0
	}
	recent := parts[start:]
	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		part := recent[i]
		author := part.Author
		if author == "" {
			author = placeholderUnknown
		}
		body := strings.TrimSpace(part.Body)
		if body == "" {
			body = placeholderNoBody
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", author, truncateBody(body, excerptBodyBudget)))
	}
	return lines
}

// truncateBody cuts a body to the character budget, appending the ellipsis
// marker only when something was cut.
func truncateBody(body string, budget int) string {
	runes := []rune(body)
	if budget <= 0 || len(runes) <= budget {
		return body
	}
	return string(runes[:budget]) + ellipsisMarker
}

func priorityLabel(ticket domain.TicketSnapshot) string {
	if ticket.AttributeAffirmative(attrExpress) {
		return "⚡ EXPRESS"
	}
	return "Standard"
}

func actorLine(d eventDescriptor, actor *domain.Actor) string {
	name := placeholderUnknown
	if actor != nil {
		if actor.Name != "" {
			name = actor.Name
		} else if actor.Email != "" {
			name = actor.Email
		}
	}
	return fmt.Sprintf("%s %s", d.ActorVerb, name)
}

func lastUpdated(parts []domain.ConversationPart) string {
	for i := len(parts) - 1; i >= 0; i-- {
		if !parts[i].CreatedAt.IsZero() {
			return parts[i].CreatedAt.UTC().Format(time.RFC3339)
		}
	}
	return placeholderUnknown
}

func attrOrUnknown(ticket domain.TicketSnapshot, name string) string {
	if v, ok := ticket.Attribute(name); ok {
		return v
	}
	return placeholderUnknown
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholderUnknown
	}
	return v
}
