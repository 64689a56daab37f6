package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tvhook/internal/metrics"
)

const DefaultTimeout = 5 * time.Second

// Result describes a single forward attempt.
type Result struct {
	Attempted  bool
	StatusCode int
	Duration   time.Duration
	Err        error
}

func (r Result) OK() bool {
	return r.Attempted && r.Err == nil
}

// Client forwards raw alert payloads to one downstream bridge URL.
// No retries: each payload gets exactly one attempt.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: logger.With("module", "relay"),
	}
}

// Enabled reports whether a destination is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Forward posts payload verbatim. Failures are reported in the Result, never panicked or retried.
func (c *Client) Forward(ctx context.Context, payload []byte) (res Result) {
	if !c.Enabled() {
		return Result{}
	}

	start := time.Now()
	res.Attempted = true
	defer func() {
		res.Duration = time.Since(start)
		status := "ok"
		if res.Err != nil {
			status = "error"
		}
		metrics.RelayForwardsTotal.WithLabelValues(status).Inc()
		metrics.RelayForwardDuration.Observe(res.Duration.Seconds())
		c.logger.Debug("relay attempt finished", "status", res.StatusCode, "duration", res.Duration, "ok", res.Err == nil)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		res.Err = fmt.Errorf("build relay request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("relay request failed: %w", err)
		return res
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	return res
}
