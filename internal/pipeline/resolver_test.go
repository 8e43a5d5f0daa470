package pipeline

import (
	"testing"

	"github.com/spec-kit/onsite-notifier/internal/config"
)

func TestResolveDestinations(t *testing.T) {
	cases := []struct {
		name      string
		channels  config.ChannelConfig
		wantNames []string
	}{
		{
			name:      "all configured",
			channels:  config.ChannelConfig{Onsite: "oc_1", Ops: "oc_2", Escalation: "oc_3", Default: "oc_9"},
			wantNames: []string{"onsite", "ops", "escalation"},
		},
		{
			name:      "placeholders are dropped",
			channels:  config.ChannelConfig{Onsite: "oc_1", Ops: "REPLACE_ME_OPS_CHANNEL", Escalation: ""},
			wantNames: []string{"onsite"},
		},
		{
			name:      "named set empty falls back to default",
			channels:  config.ChannelConfig{Onsite: "REPLACE_ME", Default: "oc_9"},
			wantNames: []string{"default"},
		},
		{
			name:      "all placeholders resolve to nothing",
			channels:  config.ChannelConfig{Onsite: "REPLACE_ME", Ops: " ", Default: "REPLACE_ME"},
			wantNames: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDestinations(config.ChatConfig{Channels: tc.channels})
			if len(got) != len(tc.wantNames) {
				t.Fatalf("expected %d destinations, got %d (%+v)", len(tc.wantNames), len(got), got)
			}
			for i, name := range tc.wantNames {
				if got[i].Name != name {
					t.Errorf("destination %d: expected %q, got %q", i, name, got[i].Name)
				}
				if got[i].ChannelID == "" {
					t.Errorf("destination %q has empty channel id", name)
				}
			}
		})
	}
}
