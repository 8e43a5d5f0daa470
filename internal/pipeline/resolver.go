package pipeline

import (
	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// ResolveDestinations derives the active destination set from configuration.
// Unset and placeholder channel ids are dropped; when the named set yields
// nothing, the default channel is the fallback. An empty result means
// "nothing to notify" and is the caller's warning to log, not an error.
func ResolveDestinations(cfg config.ChatConfig) []domain.Destination {
	named := []domain.Destination{
		{Name: "onsite", ChannelID: cfg.Channels.Onsite},
		{Name: "ops", ChannelID: cfg.Channels.Ops},
		{Name: "escalation", ChannelID: cfg.Channels.Escalation},
	}

	destinations := make([]domain.Destination, 0, len(named))
	for _, dest := range named {
		if config.Configured(dest.ChannelID) {
			destinations = append(destinations, dest)
		}
	}
	if len(destinations) > 0 {
		return destinations
	}

	if config.Configured(cfg.Channels.Default) {
		return []domain.Destination{{Name: "default", ChannelID: cfg.Channels.Default}}
	}
	return nil
}
