package pipeline

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// Custom attribute names and labels that identify the monitored
// onsite-support program.
const (
	attrTicketType      = "Ticket Type"
	attrTierSupportType = "Tier Support Type"
	attrTicketCategory  = "Ticket Category"
	attrRequestType     = "Request Type"

	programLabel       = "Onsite Support"
	tierServiceKeyword = "onsite"
)

// inspectionRequestTypes is the allow-list of request-type labels denoting
// the site-inspection sub-workflow.
var inspectionRequestTypes = map[string]bool{
	"New Merchant Site Inspection":      true,
	"Existing Merchant Site Inspection": true,
	"Merchant Site Re-inspection":       true,
}

// bodyKeywords drive the fallback scan over the first conversation part.
var bodyKeywords = []string{
	"site inspection",
	"site-inspection",
	"onsite support",
	"site survey",
}

// MatchMode selects how the rule list composes.
type MatchMode string

const (
	// MatchAny accepts a ticket when any rule fires; the first match names
	// the verdict.
	MatchAny MatchMode = "any"
	// MatchAll accepts a ticket only when every rule fires.
	MatchAll MatchMode = "all"
)

// Rule is a single named membership predicate. Predicates must be total: a
// missing or malformed field is a non-match, never an error.
type Rule struct {
	Name     string
	Evaluate func(domain.TicketSnapshot) bool
}

// Classifier decides whether a ticket belongs to the monitored program. It is
// a pure function of the webhook snapshot; it never consults enrichment.
type Classifier struct {
	rules             []Rule
	mode              MatchMode
	requireInspection bool
	logger            *zap.Logger
}

// NewClassifier builds the ordered rule list for the configured program.
func NewClassifier(cfg config.ProgramConfig, logger *zap.Logger) *Classifier {
	mode := MatchMode(strings.ToLower(strings.TrimSpace(cfg.MatchMode)))
	if mode != MatchAll {
		mode = MatchAny
	}
	return &Classifier{
		rules: []Rule{
			{Name: "team-assignment", Evaluate: teamAssignmentRule(cfg.TeamID)},
			{Name: "ticket-type", Evaluate: ticketTypeRule},
			{Name: "tier-support-type", Evaluate: tierSupportTypeRule},
			{Name: "ticket-category", Evaluate: ticketCategoryRule},
			{Name: "request-type", Evaluate: requestTypeRule},
			{Name: "keyword-scan", Evaluate: keywordScanRule},
		},
		mode:              mode,
		requireInspection: cfg.RequireInspection,
		logger:            logger,
	}
}

// Classify evaluates every rule (all outcomes are kept for diagnostics) and
// composes them according to the configured match mode.
func (c *Classifier) Classify(snapshot domain.TicketSnapshot) domain.ClassificationVerdict {
	verdict := domain.ClassificationVerdict{}
	allMatched := true
	for _, rule := range c.rules {
		matched := rule.Evaluate(snapshot)
		verdict.Evaluations = append(verdict.Evaluations, domain.RuleEvaluation{Rule: rule.Name, Matched: matched})
		if matched && !verdict.Matched {
			verdict.Matched = true
			verdict.Rule = rule.Name
		}
		if !matched {
			allMatched = false
		}
		c.logger.Debug("classification rule evaluated",
			zap.String("ticket_id", snapshot.ID),
			zap.String("rule", rule.Name),
			zap.Bool("matched", matched))
	}

	if c.mode == MatchAll {
		if allMatched {
			verdict.Matched = true
			verdict.Rule = "all-rules"
		} else {
			verdict.Matched = false
			verdict.Rule = ""
		}
	}

	if c.requireInspection {
		inspection := isInspectionRequest(snapshot)
		verdict.Evaluations = append(verdict.Evaluations, domain.RuleEvaluation{Rule: "site-inspection", Matched: inspection})
		if !inspection {
			verdict.Matched = false
			verdict.Rule = ""
		}
	}
	return verdict
}

func teamAssignmentRule(teamID string) func(domain.TicketSnapshot) bool {
	return func(s domain.TicketSnapshot) bool {
		return sameIdentifier(s.TeamAssigneeID, teamID)
	}
}

func ticketTypeRule(s domain.TicketSnapshot) bool {
	v, ok := s.Attribute(attrTicketType)
	return ok && strings.EqualFold(v, programLabel)
}

func tierSupportTypeRule(s domain.TicketSnapshot) bool {
	v, ok := s.Attribute(attrTierSupportType)
	return ok && strings.Contains(strings.ToLower(v), tierServiceKeyword)
}

func ticketCategoryRule(s domain.TicketSnapshot) bool {
	v, ok := s.Attribute(attrTicketCategory)
	if !ok {
		return false
	}
	return strings.EqualFold(v, programLabel) ||
		strings.Contains(strings.ToLower(v), strings.ToLower(programLabel))
}

func requestTypeRule(s domain.TicketSnapshot) bool {
	v, ok := s.Attribute(attrRequestType)
	return ok && inspectionRequestTypes[v]
}

func keywordScanRule(s domain.TicketSnapshot) bool {
	if len(s.Parts) == 0 {
		return false
	}
	body := strings.ToLower(s.Parts[0].Body)
	if body == "" {
		return false
	}
	for _, kw := range bodyKeywords {
		if strings.Contains(body, kw) {
			return true
		}
	}
	return false
}

// isInspectionRequest is the stricter second predicate some deployments layer
// on top of the program rules: the ticket must specifically request a site
// inspection, not merely belong to the program.
func isInspectionRequest(s domain.TicketSnapshot) bool {
	if requestTypeRule(s) {
		return true
	}
	if v, ok := s.Attribute(attrTicketCategory); ok &&
		strings.Contains(strings.ToLower(v), "site inspection") {
		return true
	}
	return keywordScanRule(s)
}

// sameIdentifier compares identifiers that may arrive as strings or numbers
// ("42" and "42.0" denote the same team).
func sameIdentifier(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	af, errA := strconv.ParseFloat(a, 64)
	bf, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && af == bf
}
