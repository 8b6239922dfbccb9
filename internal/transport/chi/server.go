package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/command"
	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	logpkg "github.com/kailas-cloud/searchlang/internal/logger"
	healthuc "github.com/kailas-cloud/searchlang/internal/usecase/health"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
	suggestuc "github.com/kailas-cloud/searchlang/internal/usecase/suggest"
)

// maxFormBytes bounds the request body accepted for form parsing.
const maxFormBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Parser parses searches and applies intentions.
type Parser interface {
	Parse(ctx context.Context, req parseruc.Request) (parseruc.Result, error)
	Decompose(ctx context.Context, req parseruc.Request) (parseruc.Decomposition, error)
}

// Suggester proposes command corrections and continuations.
type Suggester interface {
	DidYouMean(ctx context.Context, q string) ([]suggestuc.Correction, error)
	Next(ctx context.Context, q string, limit int) ([]command.Count, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the parser HTTP API.
type Server struct {
	parser        Parser
	suggest       Suggester
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(parser Parser, suggest Suggester, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		parser:  parser,
		suggest: suggest,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, true),
		sentinelHandler(domain.ErrInvalidIntention, http.StatusBadRequest, true),
		sentinelHandler(domain.ErrUnknownIntention, http.StatusBadRequest, true),
		sentinelHandler(domain.ErrUnsupportedArgument, http.StatusBadRequest, true),
		sentinelHandler(domain.ErrInvalidTimeModifier, http.StatusBadRequest, true),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, false),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, false),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/parser/parse", s.Parse)
	r.Get("/parser/decompose", s.Decompose)
	r.Post("/parser/decompose", s.Decompose)
	r.Get("/parser/suggest", s.Suggest)
	r.Get("/parser/next", s.Next)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Parse handles POST /parser/parse.
func (s *Server) Parse(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromForm(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(scopedLogger(r.Context(), req.Scope))

	raw := r.FormValue("intentions")
	req.Intentions, err = intention.DecodeList(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.parser.Parse(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Decompose handles GET|POST /parser/decompose.
func (s *Server) Decompose(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromForm(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(scopedLogger(r.Context(), req.Scope))

	d, err := s.parser.Decompose(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Suggest handles GET /parser/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	corrections, err := s.suggest.DidYouMean(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"corrections": corrections})
}

// Next handles GET /parser/next.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	cmds, err := s.suggest.Next(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// requestFromForm reads q, namespace and owner from the query string or a
// urlencoded body.
func requestFromForm(w http.ResponseWriter, r *http.Request) (parseruc.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return parseruc.Request{}, errors.Join(domain.ErrInvalidQuery, err)
	}
	return parseruc.Request{
		Query: r.FormValue("q"),
		Scope: parseruc.Scope{
			Namespace: r.FormValue("namespace"),
			Owner:     r.FormValue("owner"),
		},
	}, nil
}

func scopedLogger(ctx context.Context, scope parseruc.Scope) context.Context {
	var fields []zap.Field
	if scope.Namespace != "" {
		fields = append(fields, zap.String("namespace", scope.Namespace))
	}
	if scope.Owner != "" {
		fields = append(fields, zap.String("owner", scope.Owner))
	}
	return logpkg.With(ctx, fields...)
}

// errorResponse is the failure envelope.
type errorResponse struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Messages: []string{message}})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry the full message; backend failures only the sentinel text.
func sentinelHandler(sentinel error, status int, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detailed {
			msg = err.Error()
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	if errors.Is(err, domain.ErrInvalidQuery) {
		log.Warn("parse failed", zap.Error(err), zap.Stack("stacktrace"))
	} else {
		log.Warn("domain error", zap.Error(err))
	}

	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
