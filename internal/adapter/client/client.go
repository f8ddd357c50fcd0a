package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/metrics"
)

// maxResponseBytes caps how much of an upstream body is read, 2 MB.
const maxResponseBytes = 2 << 20

// Client is the shared HTTP transport for the external transaction store.
// Status codes at or above 400 map to domain.UpstreamError; transport
// failures wrap domain.ErrFeedUnavailable.
type Client struct {
	http    *http.Client
	urls    *URLBuilder
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a Client against the given base URL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	urls, err := NewURLBuilder(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse external api base url: %w", err)
	}

	return &Client{
		http:   &http.Client{Timeout: timeout},
		urls:   urls,
		logger: logger,
	}, nil
}

// WithMetrics attaches request counters to the client.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// getJSON fetches a URL and decodes its JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	endpoint := endpointLabel(req.URL.Path)
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint).Inc()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.WithLabelValues(endpoint, "transport").Inc()
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrFeedUnavailable, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body from %s: %v", domain.ErrFeedUnavailable, url, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.WithLabelValues(endpoint, "status").Inc()
		}
		c.logger.Error().Int("status", resp.StatusCode).Str("url", url).
			Msg("upstream request failed")
		return &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}

	return nil
}

// endpointLabel keeps metric labels low-cardinality: the first two path
// segments, with numeric ids collapsed.
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	for i, s := range segments {
		if isNumeric(s) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
