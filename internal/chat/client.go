package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// tokenSafetyMargin refreshes the tenant token before the platform expires it
// so in-flight sends never race expiry.
const tokenSafetyMargin = 5 * time.Minute

// Client sends notifications to chat group channels. It acquires and caches
// the tenant access token on demand.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a chat client with a bounded request timeout.
func NewClient(cfg config.ChatConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: cfg.SendTimeout()},
		logger:     logger,
	}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

type sendResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Send delivers a notification to a single destination channel. It satisfies
// the pipeline's Sender contract: one call, success or error, no retry.
func (c *Client) Send(ctx context.Context, dest domain.Destination, n domain.Notification) error {
	token, err := c.tenantToken(ctx)
	if err != nil {
		return fmt.Errorf("acquire chat token: %w", err)
	}

	msg := map[string]any{"receive_id": dest.ChannelID}
	switch {
	case n.Format == domain.FormatCard && n.Card != nil:
		content, err := json.Marshal(cardPayload(n.Card))
		if err != nil {
			return fmt.Errorf("encode card: %w", err)
		}
		msg["msg_type"] = "interactive"
		msg["content"] = string(content)
	default:
		content, err := json.Marshal(map[string]string{"text": n.Text})
		if err != nil {
			return fmt.Errorf("encode text: %w", err)
		}
		msg["msg_type"] = "text"
		msg["content"] = string(content)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := c.baseURL + "/im/v1/messages?receive_id_type=chat_id"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", dest.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("send to channel %s: status %d, body: %s", dest.Name, resp.StatusCode, string(raw))
	}

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if sr.Code != 0 {
		return fmt.Errorf("chat platform rejected message for channel %s: code %d, msg %s", dest.Name, sr.Code, sr.Msg)
	}
	return nil
}

// Ping verifies chat credentials are usable; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tenantToken(ctx)
	return err
}

// tenantToken returns a cached tenant access token, refreshing when expired.
// The mutex also serializes refreshes so only one request hits the token
// endpoint at a time.
func (c *Client) tenantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	url := c.baseURL + "/auth/v3/tenant_access_token/internal"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request tenant token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("request tenant token: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.Code != 0 {
		return "", fmt.Errorf("tenant token rejected: code %d, msg %s", tr.Code, tr.Msg)
	}

	ttl := time.Duration(tr.Expire)*time.Second - tokenSafetyMargin
	if ttl < time.Minute {
		ttl = time.Minute
	}
	c.token = tr.TenantAccessToken
	c.tokenExpiry = time.Now().Add(ttl)
	c.logger.Debug("tenant token refreshed", zap.Time("expires_at", c.tokenExpiry))
	return c.token, nil
}
