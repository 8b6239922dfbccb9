package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/searchlang"
	chiTransport "github.com/kailas-cloud/searchlang/internal/transport/chi"
	healthuc "github.com/kailas-cloud/searchlang/internal/usecase/health"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
	suggestuc "github.com/kailas-cloud/searchlang/internal/usecase/suggest"
)

// --- Mocks ---

type staticHealth struct {
	report healthuc.Report
}

func (s staticHealth) Check(_ context.Context) healthuc.Report { return s.report }

// --- Helpers ---

func newTestServer(t *testing.T, keys []string, health healthuc.Report) *httptest.Server {
	t.Helper()
	if health.Status == "" {
		health = healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}
	}
	r := gochi.NewRouter()
	r.Use(chiTransport.SessionAuthMiddleware(keys))
	chiTransport.NewServer(
		parseruc.New(nil, nil, nil, nil, nil),
		suggestuc.New(nil),
		staticHealth{report: health},
		nil,
	).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv.URL+"/", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// --- Tests ---

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost", "://x"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) expected error", u)
		}
	}
}

func TestParse_Raw(t *testing.T) {
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}))

	res, err := c.Parse(context.Background(), "error | head 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Search != "search error | head 5" || !res.Raw() {
		t.Errorf("result = %+v", res)
	}
}

func TestParse_WithIntentions(t *testing.T) {
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}), WithScope("search", "admin"))

	res, err := c.Parse(context.Background(), "error",
		searchlang.Intention{Name: searchlang.AddTerm, Arg: json.RawMessage(`{"host":"a"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Raw() || res.Intentions != 1 {
		t.Fatalf("result = %+v", res)
	}
	args := res.Clauses[0].Args
	if len(args.Fields) != 1 || args.Fields[0] != (Field{Key: "host", Value: "a"}) || args.Terms != "error" {
		t.Errorf("args = %+v", args)
	}
}

func TestParse_BadRequest(t *testing.T) {
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}))

	_, err := c.Parse(context.Background(), `a "b`)
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	var ae *APIError
	if !errors.As(err, &ae) || ae.StatusCode != http.StatusBadRequest || len(ae.Messages) != 1 {
		t.Errorf("api error = %+v", ae)
	}
}

func TestSessionKey(t *testing.T) {
	srv := newTestServer(t, []string{"secret"}, healthuc.Report{})

	_, err := newTestClient(t, srv).Parse(context.Background(), "a")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := newTestClient(t, srv, WithSessionKey("secret")).Parse(context.Background(), "a"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecompose(t *testing.T) {
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}))

	d, err := c.Decompose(context.Background(), "host=a NOT debug | stats count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Search != "search * | stats count" || len(d.Intentions) != 2 {
		t.Errorf("decomposition = %+v", d)
	}
	if d.Intentions[1].Name != searchlang.NegateTerm {
		t.Errorf("intentions = %+v", d.Intentions)
	}
}

func TestSuggestAndNext(t *testing.T) {
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}))

	corrections, err := c.Suggest(context.Background(), "a | stast count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corrections) == 0 || corrections[0].Suggested != "stats" {
		t.Errorf("corrections = %+v", corrections)
	}

	next, err := c.Next(context.Background(), "a | stats count", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next) != 0 {
		t.Errorf("next without history = %+v", next)
	}
}

func TestHealth_Degraded(t *testing.T) {
	srv := newTestServer(t, nil, healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{healthuc.ComponentBackend: healthuc.CheckError},
	})

	h, err := newTestClient(t, srv).Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "degraded" || h.Checks["backend"] != "error" {
		t.Errorf("health = %+v", h)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, newTestServer(t, nil, healthuc.Report{}),
		WithPrometheus(reg), WithLogger(slog.New(slog.DiscardHandler)))

	_, _ = c.Parse(context.Background(), "a")
	_, _ = c.Parse(context.Background(), "")

	if got := testutil.ToFloat64(c.obs.metrics.calls.WithLabelValues("parse", outcomeOK)); got != 1 {
		t.Errorf("parse ok = %v", got)
	}
	if got := testutil.ToFloat64(c.obs.metrics.calls.WithLabelValues("parse", outcomeClientError)); got != 1 {
		t.Errorf("parse error = %v", got)
	}

	if got := testutil.ToFloat64(c.obs.metrics.inFlight); got != 0 {
		t.Errorf("in flight = %v", got)
	}

	// A second client on the same registry reuses the collectors.
	if _, err := New("http://localhost", WithPrometheus(reg)); err != nil {
		t.Errorf("second client: %v", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{errors.New("connection refused"), outcomeTransport},
		{&APIError{StatusCode: http.StatusBadRequest}, outcomeClientError},
		{&APIError{StatusCode: http.StatusUnauthorized}, outcomeClientError},
		{&APIError{StatusCode: http.StatusBadGateway}, outcomeServerError},
	}
	for _, tc := range tests {
		if got := outcome(tc.err); got != tc.want {
			t.Errorf("outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
