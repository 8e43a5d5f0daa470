package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// placeholderPrefix marks channel ids and secrets that were copied from an
// env template but never filled in. Such values count as "not configured".
const placeholderPrefix = "REPLACE_ME"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Webhook      WebhookConfig
	Helpdesk     HelpdeskConfig
	Chat         ChatConfig
	Program      ProgramConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// WebhookConfig guards the ingress endpoint. An empty token disables the check.
type WebhookConfig struct {
	Token string
}

// HelpdeskConfig holds ticketing-platform API values.
type HelpdeskConfig struct {
	BaseURL             string
	APIToken            string
	FetchTimeoutSeconds int
}

// ChannelConfig names the destination channel set.
type ChannelConfig struct {
	Onsite     string
	Ops        string
	Escalation string
	Default    string
}

// ChatConfig holds chat-platform API values and the destination channels.
type ChatConfig struct {
	BaseURL            string
	AppID              string
	AppSecret          string
	SendTimeoutSeconds int
	Channels           ChannelConfig
}

// ProgramConfig identifies the monitored onsite-support program.
type ProgramConfig struct {
	TeamID            string
	MatchMode         string
	RequireInspection bool
}

// NotificationConfig selects the rendered message variant.
type NotificationConfig struct {
	Format string
}

// Load reads configuration from environment variables, applying defaults
// where possible. Absent or placeholder values are "not configured", never a
// load error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "onsite-notifier"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Webhook: WebhookConfig{
			Token: os.Getenv("WEBHOOK_TOKEN"),
		},
		Helpdesk: HelpdeskConfig{
			BaseURL:             getEnv("HELPDESK_BASE_URL", "https://helpdesk.example.com"),
			APIToken:            os.Getenv("HELPDESK_API_TOKEN"),
			FetchTimeoutSeconds: getEnvAsInt("HELPDESK_FETCH_TIMEOUT_SECONDS", 5),
		},
		Chat: ChatConfig{
			BaseURL:            getEnv("CHAT_BASE_URL", "https://open.chatplatform.example/open-apis"),
			AppID:              os.Getenv("CHAT_APP_ID"),
			AppSecret:          os.Getenv("CHAT_APP_SECRET"),
			SendTimeoutSeconds: getEnvAsInt("CHAT_SEND_TIMEOUT_SECONDS", 10),
			Channels: ChannelConfig{
				Onsite:     os.Getenv("CHAT_CHANNEL_ONSITE"),
				Ops:        os.Getenv("CHAT_CHANNEL_OPS"),
				Escalation: os.Getenv("CHAT_CHANNEL_ESCALATION"),
				Default:    os.Getenv("CHAT_CHANNEL_DEFAULT"),
			},
		},
		Program: ProgramConfig{
			TeamID:            os.Getenv("PROGRAM_TEAM_ID"),
			MatchMode:         getEnv("PROGRAM_MATCH_MODE", "any"),
			RequireInspection: getEnvAsBool("PROGRAM_REQUIRE_INSPECTION", false),
		},
		Notification: NotificationConfig{
			Format: getEnv("NOTIFY_FORMAT", "card"),
		},
	}

	return cfg, nil
}

// Configured reports whether a value was actually supplied, rejecting
// placeholder sentinels left over from env templates.
func Configured(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.HasPrefix(v, placeholderPrefix)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// FetchTimeout bounds the enrichment fetch.
func (h HelpdeskConfig) FetchTimeout() time.Duration {
	if h.FetchTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(h.FetchTimeoutSeconds) * time.Second
}

// SendTimeout bounds each destination send.
func (c ChatConfig) SendTimeout() time.Duration {
	if c.SendTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
