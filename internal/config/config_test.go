package config

import (
	"testing"
	"time"
)

func TestConfigured(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"oc_abc123", true},
		{"", false},
		{"   ", false},
		{"REPLACE_ME", false},
		{"REPLACE_ME_ONSITE_CHANNEL", false},
		{" oc_abc123 ", true},
	}
	for _, tc := range cases {
		if got := Configured(tc.value); got != tc.want {
			t.Errorf("Configured(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestTimeoutDefaults(t *testing.T) {
	if got := (HelpdeskConfig{}).FetchTimeout(); got != 5*time.Second {
		t.Errorf("expected default fetch timeout 5s, got %v", got)
	}
	if got := (HelpdeskConfig{FetchTimeoutSeconds: 2}).FetchTimeout(); got != 2*time.Second {
		t.Errorf("expected configured fetch timeout 2s, got %v", got)
	}
	if got := (ChatConfig{}).SendTimeout(); got != 10*time.Second {
		t.Errorf("expected default send timeout 10s, got %v", got)
	}
	if got := (AppConfig{}).RequestTimeout(); got != 0 {
		t.Errorf("expected zero request timeout when unset, got %v", got)
	}
}
