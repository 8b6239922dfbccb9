package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/command"
	healthuc "github.com/kailas-cloud/searchlang/internal/usecase/health"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
	suggestuc "github.com/kailas-cloud/searchlang/internal/usecase/suggest"
)

// --- Mocks ---

type failingParser struct {
	err error
}

func (m *failingParser) Parse(_ context.Context, _ parseruc.Request) (parseruc.Result, error) {
	return parseruc.Result{}, m.err
}

func (m *failingParser) Decompose(_ context.Context, _ parseruc.Request) (parseruc.Decomposition, error) {
	return parseruc.Decomposition{}, m.err
}

type recordingParser struct {
	Parser
	last parseruc.Request
}

func (m *recordingParser) Parse(ctx context.Context, req parseruc.Request) (parseruc.Result, error) {
	m.last = req
	return m.Parser.Parse(ctx, req)
}

type mockSuggester struct {
	lastQuery string
	lastLimit int
}

func (m *mockSuggester) DidYouMean(_ context.Context, q string) ([]suggestuc.Correction, error) {
	m.lastQuery = q
	return []suggestuc.Correction{{Clause: 1, Original: "stast", Suggested: "stats", Similarity: 0.8}}, nil
}

func (m *mockSuggester) Next(_ context.Context, q string, limit int) ([]command.Count, error) {
	m.lastQuery, m.lastLimit = q, limit
	return []command.Count{{Command: "sort", Count: 3}}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestRouter(p Parser, sg Suggester, h HealthChecker) http.Handler {
	if p == nil {
		p = parseruc.New(nil, nil, nil, nil, nil)
	}
	if sg == nil {
		sg = &mockSuggester{}
	}
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	r := gochi.NewRouter()
	NewServer(p, sg, h, nil).Routes(r)
	return r
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Success || len(resp.Messages) == 0 {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	return resp
}

// --- Tests ---

func TestParse_RawWithoutIntentions(t *testing.T) {
	rr := postForm(newTestRouter(nil, nil, nil), "/parser/parse", url.Values{"q": {"error | head 5"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["search"] != "search error | head 5" {
		t.Errorf("search = %v", body["search"])
	}
	if strings.Contains(rr.Body.String(), `"args"`) {
		t.Errorf("raw response has args: %s", rr.Body)
	}
}

func TestParse_ViewWithIntentions(t *testing.T) {
	rr := postForm(newTestRouter(nil, nil, nil), "/parser/parse", url.Values{
		"q":          {"error"},
		"intentions": {`[{"name":"addterm","arg":{"host":"a"}}]`},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"args"`) {
		t.Errorf("view response lacks args: %s", rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"search":"search error host=a"`) {
		t.Errorf("unexpected body: %s", rr.Body)
	}
}

func TestParse_PassesScope(t *testing.T) {
	p := &recordingParser{Parser: parseruc.New(nil, nil, nil, nil, nil)}
	rr := postForm(newTestRouter(p, nil, nil), "/parser/parse", url.Values{
		"q": {"a"}, "namespace": {"search"}, "owner": {"admin"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if p.last.Scope.Namespace != "search" || p.last.Scope.Owner != "admin" {
		t.Errorf("scope = %+v", p.last.Scope)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		parser   Parser
		form     url.Values
		wantCode int
		wantMsg  string
	}{
		{"unterminated quote", nil, url.Values{"q": {`a "b`}}, http.StatusBadRequest, "invalid search"},
		{"empty query", nil, url.Values{"q": {""}}, http.StatusBadRequest, "invalid search"},
		{"bad intentions", nil, url.Values{"q": {"a"}, "intentions": {"{"}}, http.StatusBadRequest, "invalid intention"},
		{"unknown intention", nil, url.Values{"q": {"a"}, "intentions": {`[{"name":"explode"}]`}},
			http.StatusBadRequest, "unknown intention"},
		{"backend", &failingParser{err: errors.Join(domain.ErrBackendUnavailable, errors.New("dial tcp"))},
			url.Values{"q": {"a"}}, http.StatusBadGateway, "search backend unavailable"},
		{"unauthorized", &failingParser{err: domain.ErrUnauthorized}, url.Values{"q": {"a"}},
			http.StatusUnauthorized, "unauthorized"},
		{"internal", &failingParser{err: errors.New("boom")}, url.Values{"q": {"a"}},
			http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postForm(newTestRouter(tc.parser, nil, nil), "/parser/parse", tc.form)
			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tc.wantCode, rr.Body)
			}
			resp := decodeError(t, rr)
			if !strings.HasPrefix(resp.Messages[0], tc.wantMsg) && !strings.Contains(resp.Messages[0], tc.wantMsg) {
				t.Errorf("message = %q, want %q", resp.Messages[0], tc.wantMsg)
			}
			if tc.wantCode == http.StatusBadGateway && strings.Contains(resp.Messages[0], "dial") {
				t.Errorf("backend details leaked: %q", resp.Messages[0])
			}
		})
	}
}

func TestDecompose_GetAndPost(t *testing.T) {
	h := newTestRouter(nil, nil, nil)

	for _, rr := range []*httptest.ResponseRecorder{
		get(h, "/parser/decompose?q="+url.QueryEscape("error NOT debug | stats count")),
		postForm(h, "/parser/decompose", url.Values{"q": {"error NOT debug | stats count"}}),
	} {
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body)
		}
		var d parseruc.Decomposition
		if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
			t.Fatal(err)
		}
		if d.Search != "search * | stats count" || len(d.Intentions) != 2 {
			t.Errorf("decomposition = %+v", d)
		}
	}
}

func TestParse_MethodNotAllowed(t *testing.T) {
	rr := get(newTestRouter(nil, nil, nil), "/parser/parse?q=a")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	decodeError(t, rr)
}

func TestNotFound(t *testing.T) {
	rr := get(newTestRouter(nil, nil, nil), "/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	decodeError(t, rr)
}

func TestSuggestAndNext(t *testing.T) {
	sg := &mockSuggester{}
	h := newTestRouter(nil, sg, nil)

	rr := get(h, "/parser/suggest?q="+url.QueryEscape("a | stast count"))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"suggested":"stats"`) {
		t.Errorf("suggest: %d %s", rr.Code, rr.Body)
	}
	if sg.lastQuery != "a | stast count" {
		t.Errorf("query = %q", sg.lastQuery)
	}

	rr = get(h, "/parser/next?q=stats&limit=7")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"commands":[{"command":"sort","count":3}]`) {
		t.Errorf("next: %d %s", rr.Code, rr.Body)
	}
	if sg.lastLimit != 7 {
		t.Errorf("limit = %d", sg.lastLimit)
	}

	rr = get(h, "/parser/next?q=stats&limit=x")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit: %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		h := newTestRouter(nil, nil, &mockHealth{report: healthuc.Report{
			Status: tc.status,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentCache: healthuc.CheckOK},
		}})
		rr := get(h, "/health")
		if rr.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.status, rr.Code, tc.want)
		}
		if !strings.Contains(rr.Body.String(), `"status":"`+string(tc.status)+`"`) {
			t.Errorf("%s: body = %s", tc.status, rr.Body)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := get(newTestRouter(nil, nil, nil), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
