package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/searchlang"
)

const defaultTimeout = 10 * time.Second

// Client calls a searchlang server.
type Client struct {
	base       *url.URL
	http       *http.Client
	sessionKey string
	namespace  string
	owner      string
	obs        *observer
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("searchlang sdk: invalid base url %q", baseURL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		base:       base,
		http:       hc,
		sessionKey: cfg.sessionKey,
		namespace:  cfg.namespace,
		owner:      cfg.owner,
		obs:        obs,
	}, nil
}

// Parse sends q and intentions to POST /parser/parse.
func (c *Client) Parse(ctx context.Context, q string, intentions ...searchlang.Intention) (res ParseResult, err error) {
	done := c.obs.begin("parse")
	defer func() { done(err) }()

	form := c.form(q)
	if len(intentions) > 0 {
		raw, err := json.Marshal(intentions)
		if err != nil {
			return ParseResult{}, fmt.Errorf("marshal intentions: %w", err)
		}
		form.Set("intentions", string(raw))
	}

	err = c.post(ctx, "/parser/parse", form, &res)
	return res, err
}

// Decompose sends q to POST /parser/decompose.
func (c *Client) Decompose(ctx context.Context, q string) (d Decomposition, err error) {
	done := c.obs.begin("decompose")
	defer func() { done(err) }()

	err = c.post(ctx, "/parser/decompose", c.form(q), &d)
	return d, err
}

// Suggest returns corrections for unknown commands in q.
func (c *Client) Suggest(ctx context.Context, q string) (_ []Correction, err error) {
	done := c.obs.begin("suggest")
	defer func() { done(err) }()

	var resp struct {
		Corrections []Correction `json:"corrections"`
	}
	err = c.get(ctx, "/parser/suggest", url.Values{"q": {q}}, &resp)
	return resp.Corrections, err
}

// Next returns the commands most often used after the last command of q.
// A limit of zero uses the server default.
func (c *Client) Next(ctx context.Context, q string, limit int) (_ []CommandCount, err error) {
	done := c.obs.begin("next")
	defer func() { done(err) }()

	params := url.Values{"q": {q}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Commands []CommandCount `json:"commands"`
	}
	err = c.get(ctx, "/parser/next", params, &resp)
	return resp.Commands, err
}

// Health returns the server health report. A degraded server answers with
// 503 and a report, which is returned without error.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	done := c.obs.begin("health")
	defer func() { done(err) }()

	err = c.get(ctx, "/health", nil, &h)
	if statusCode(err) == http.StatusServiceUnavailable && h.Status != "" {
		return h, nil
	}
	return h, err
}

func (c *Client) form(q string) url.Values {
	v := url.Values{"q": {q}}
	if c.namespace != "" {
		v.Set("namespace", c.namespace)
	}
	if c.owner != "" {
		v.Set("owner", c.owner)
	}
	return v
}

func (c *Client) post(ctx context.Context, path string, form url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, dst)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, params), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, dst)
}

func (c *Client) url(path string, params url.Values) string {
	u := *c.base
	u.Path += path
	u.RawQuery = params.Encode()
	return u.String()
}

// do sends req and decodes the body into dst. Failure bodies are decoded as
// an APIError; 503 bodies are also decoded into dst.
func (c *Client) do(req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")
	if c.sessionKey != "" {
		req.Header.Set("Authorization", "Splunk "+c.sessionKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("searchlang sdk: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusServiceUnavailable && dst != nil {
			_ = json.Unmarshal(body, dst)
		}
		return apiError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var env struct {
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Messages) == 0 {
		env.Messages = []string{http.StatusText(status)}
	}
	return &APIError{StatusCode: status, Messages: env.Messages}
}

