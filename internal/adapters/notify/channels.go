package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
)

// defaultWebhookTimeout bounds one webhook delivery attempt.
const defaultWebhookTimeout = 10 * time.Second

// LogChannel writes notices to the service log. It is the default channel
// when no webhook is configured.
type LogChannel struct {
	logger logger.Logger
}

// NewLogChannel creates a channel backed by the named service logger.
func NewLogChannel() *LogChannel {
	return &LogChannel{
		logger: logger.Get().Named("notice"),
	}
}

// Post logs the notice.
func (c *LogChannel) Post(ctx context.Context, n Notice) error {
	c.logger.Info(ctx, "raid notice",
		logger.String("kind", string(n.Kind)),
		logger.String("raid_id", n.RaidID),
		logger.String("village", n.Village),
		logger.String("message", n.Message),
	)
	return nil
}

// WebhookChannel posts notices as JSON to a configured URL.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// WebhookOption applies a configuration option to the WebhookChannel.
type WebhookOption func(*WebhookChannel)

// WithHTTPClient sets a custom HTTP client. Used in tests.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(c *WebhookChannel) {
		if client != nil {
			c.client = client
		}
	}
}

// NewWebhookChannel creates a channel posting to url.
func NewWebhookChannel(url string, opts ...WebhookOption) *WebhookChannel {
	c := &WebhookChannel{
		url: url,
		client: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Post delivers the notice as a JSON POST. Non-2xx responses count as
// delivery failures.
func (c *WebhookChannel) Post(ctx context.Context, n Notice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notice: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
