// Package splunkd talks to the search backend's REST API.
package splunkd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
	"github.com/kailas-cloud/searchlang/internal/metrics"
)

const (
	timeParserPath = "/services/search/timeparser"
	serverInfoPath = "/services/server/info"
)

// Config holds the backend connection settings.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Retry              RetryConfig
	RateLimit          RateLimitConfig
	Logger             *zap.Logger
	HTTPClient         *http.Client
}

// Client calls the backend REST API with the caller's session key.
type Client struct {
	base    *url.URL
	http    *http.Client
	retry   RetryConfig
	limiter *rateLimiter
	logger  *zap.Logger
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed backends
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:    base,
		http:    hc,
		retry:   cfg.Retry.withDefaults(),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
	}, nil
}

// Resolve asks the backend to evaluate earliest and latest. Empty bounds
// are passed through unresolved.
func (c *Client) Resolve(ctx context.Context, earliest, latest string) (parsed.TimeRange, error) {
	tr := parsed.TimeRange{Earliest: earliest, Latest: latest}

	q := url.Values{"output_mode": {"json"}}
	for _, v := range []string{earliest, latest} {
		if v != "" {
			q.Add("time", v)
		}
	}
	if len(q["time"]) == 0 {
		return tr, nil
	}

	var body map[string]string
	if err := c.get(ctx, timeParserPath, q, &body); err != nil {
		return parsed.TimeRange{}, err
	}

	var err error
	if tr.EarliestTime, err = lookupTime(body, earliest); err != nil {
		return parsed.TimeRange{}, err
	}
	if tr.LatestTime, err = lookupTime(body, latest); err != nil {
		return parsed.TimeRange{}, err
	}
	return tr, nil
}

// HealthCheck verifies the backend answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.get(ctx, serverInfoPath, url.Values{"output_mode": {"json"}}, nil)
}

func lookupTime(body map[string]string, expr string) (*time.Time, error) {
	if expr == "" {
		return nil, nil
	}
	raw, ok := body[expr]
	if !ok {
		return nil, fmt.Errorf("%w: %q not resolved", domain.ErrInvalidTimeModifier, expr)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend time %q: %w", raw, domain.ErrBackendUnavailable)
	}
	return &t, nil
}

// get performs a GET with retries. Only transport failures, 429 and 5xx
// responses are retried.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	start := time.Now()
	err := retry(ctx, path, c.retry, c.logger, func() error {
		return c.do(ctx, u.String(), dst)
	})
	metrics.BackendRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(path, "error").Inc()
		if errors.Is(err, domain.ErrInvalidTimeModifier) || errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("%s: %w: %w", path, domain.ErrBackendUnavailable, err)
	}
	metrics.BackendRequestsTotal.WithLabelValues(path, "ok").Inc()
	return nil
}

func (c *Client) do(ctx context.Context, target string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return permanent(fmt.Errorf("build request: %w", err))
	}
	if s, ok := domain.SessionFromContext(ctx); ok && s.Key != "" {
		req.Header.Set("Authorization", "Splunk "+s.Key)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return permanent(fmt.Errorf("backend rejected session: %w", domain.ErrUnauthorized))
	case resp.StatusCode == http.StatusTooManyRequests:
		c.limiter.backOff(retryAfter(resp.Header))
		return fmt.Errorf("backend throttled: %s", backendMessage(resp.Body))
	case resp.StatusCode == http.StatusBadRequest:
		return permanent(fmt.Errorf("%w: %s", domain.ErrInvalidTimeModifier, backendMessage(resp.Body)))
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, backendMessage(resp.Body))
	case resp.StatusCode >= http.StatusMultipleChoices:
		return permanent(fmt.Errorf("backend status %d: %s", resp.StatusCode, backendMessage(resp.Body)))
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// backendMessage extracts the first message text of an error body.
func backendMessage(body io.Reader) string {
	var env struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	if json.Unmarshal(data, &env) == nil && len(env.Messages) > 0 {
		return env.Messages[0].Text
	}
	return strings.TrimSpace(string(data))
}
