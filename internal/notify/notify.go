package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier is the interface for sending chain health notifications.
type Notifier interface {
	SendStale(ctx context.Context, symbol, expiry string, elapsed time.Duration) error
	SendRecovered(ctx context.Context, symbol, expiry string, downFor time.Duration) error
}

// Config holds ntfy notification configuration.
type Config struct {
	Enabled  bool   // Whether notifications are enabled
	Server   string // ntfy server URL (default: https://ntfy.sh)
	Topic    string // Topic name (required if enabled)
	Priority string // Message priority: min, low, default, high, urgent
	Tags     string // Comma-separated emoji tags (e.g., "hourglass")
	Token    string // Optional access token for private topics
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendStale alerts that a chain stopped updating.
func (c *Client) SendStale(ctx context.Context, symbol, expiry string, elapsed time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Chain Stale: %s %s", symbol, expiry)
	message := fmt.Sprintf("No updates for %s", elapsed.Round(time.Second))
	tags := c.config.Tags + ",warning"
	priority := "high" // Override to high priority for stale chains

	return c.send(ctx, title, message, tags, priority)
}

// SendRecovered alerts that a stale chain is updating again.
func (c *Client) SendRecovered(ctx context.Context, symbol, expiry string, downFor time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Chain Recovered: %s %s", symbol, expiry)
	message := fmt.Sprintf("Updates resumed after %s", downFor.Round(time.Second))
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendStale is a no-op.
func (n *NoopNotifier) SendStale(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

// SendRecovered is a no-op.
func (n *NoopNotifier) SendRecovered(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
