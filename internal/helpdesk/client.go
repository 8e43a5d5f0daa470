package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/domain"
	apperrors "github.com/spec-kit/onsite-notifier/pkg/util"
)

// Client talks to the helpdesk read API. The pipeline uses a single call:
// fetching the full conversation record for enrichment.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a helpdesk client with a bounded request timeout.
func NewClient(cfg config.HelpdeskConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout()},
		logger:     logger,
	}
}

// GetConversation fetches the full conversation record by id.
func (c *Client) GetConversation(ctx context.Context, id string) (*domain.TicketSnapshot, error) {
	url := fmt.Sprintf("%s/conversations/%s", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create conversation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("conversation", map[string]any{"id": id})
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("fetch conversation %s: status %d, body: %s", id, resp.StatusCode, string(body))
	}

	var payload conversationPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}

	snap := payload.toSnapshot()
	if snap.ID == "" {
		snap.ID = id
	}
	c.logger.Debug("conversation fetched",
		zap.String("conversation_id", snap.ID),
		zap.Int("parts", len(snap.Parts)))
	return &snap, nil
}
