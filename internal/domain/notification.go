package domain

import "time"

// NotificationFormat selects the renderer.
type NotificationFormat string

const (
	FormatText NotificationFormat = "text"
	FormatCard NotificationFormat = "card"
)

// CardBlock is one content section of a card notification.
type CardBlock struct {
	Lines []string
}

// CardAction is the card's primary open-ticket action.
type CardAction struct {
	Text string
	URL  string
}

// Card is the structured notification variant: a colored header plus ordered
// content blocks and a single action link.
type Card struct {
	Title    string
	Template string
	Blocks   []CardBlock
	Action   CardAction
}

// Notification is the rendered message delivered to destinations. Exactly one
// of Text or Card is populated, according to Format.
type Notification struct {
	Format NotificationFormat
	Text   string
	Card   *Card
}

// Destination is a logical channel target.
type Destination struct {
	Name      string
	ChannelID string
}

// DispatchOutcome records one destination's delivery result. Outcomes are
// used only for logging and counters; nothing is persisted.
type DispatchOutcome struct {
	Destination Destination
	Err         error
	Duration    time.Duration
}

// Succeeded reports whether the send completed without error.
func (o DispatchOutcome) Succeeded() bool {
	return o.Err == nil
}

// RuleEvaluation records a single classification rule outcome for diagnostics.
type RuleEvaluation struct {
	Rule    string
	Matched bool
}

// ClassificationVerdict is the classifier's decision plus the per-rule
// evaluations that produced it. Rule names the first rule that fired.
type ClassificationVerdict struct {
	Matched     bool
	Rule        string
	Evaluations []RuleEvaluation
}
