package uplink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// API paths consumed on the dashboard instance.
const (
	PathMessages  = "/api/messages"
	PathNeighbors = "/api/neighbors"
	PathTraces    = "/api/traces"
	PathPositions = "/api/positions"
	PathTelemetry = "/api/telemetry"
	PathNodes     = "/api/nodes"
	PathIngestors = "/api/ingestors"
)

const postTimeout = 10 * time.Second

// The instance sits behind a proxy that rejects non-browser clients, so the
// uplink presents itself as a recent Chrome.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Client POSTs JSON records to a dashboard instance. An empty base URL turns
// every Post into a silent no-op so the daemon can run without an uplink.
type Client struct {
	logger  *slog.Logger
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(logger *slog.Logger, baseURL, token string) *Client {
	return &Client{
		logger:  logger,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: postTimeout},
	}
}

// Enabled reports whether an instance URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

func (c *Client) Post(path string, body map[string]any) error {
	if c.baseURL == "" {
		return nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", path, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("User-Agent", browserUserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		trimmed := strings.TrimSpace(string(snippet))
		if trimmed == "" {
			return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
		}

		return fmt.Errorf("post %s: unexpected status %d: %s", path, resp.StatusCode, trimmed)
	}

	c.logger.Debug("uplink post ok", "path", path, "status", resp.StatusCode)

	return nil
}
