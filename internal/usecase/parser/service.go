package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
	"github.com/kailas-cloud/searchlang/internal/metrics"
)

// Request is a parse or decompose request.
type Request struct {
	Query      string
	Intentions []intention.Intention
	Scope      Scope
}

// Result holds exactly one of the two parse views.
type Result struct {
	Raw  *parsed.RawView
	View *parsed.View
}

// Payload returns whichever view is set.
func (r Result) Payload() any {
	if r.View != nil {
		return r.View
	}
	return r.Raw
}

// MarshalJSON encodes the payload view.
func (r Result) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(r.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return b, nil
}

// Decomposition is a search reduced to a base wildcard plus the intentions
// that rebuild its base clause.
type Decomposition struct {
	Search     string                `json:"search"`
	Intentions []intention.Intention `json:"intentions"`
	TimeRange  *parsed.TimeRange     `json:"timerange,omitempty"`
}

// Service parses searches and applies intentions to them.
type Service struct {
	extractor kv.Extractor
	registry  Registry
	resolver  TimeResolver
	recorder  UsageRecorder
	logger    *zap.Logger
}

// New creates a parser service. resolver and recorder may be nil.
func New(
	extractor kv.Extractor, registry Registry,
	resolver TimeResolver, recorder UsageRecorder, logger *zap.Logger,
) *Service {
	if extractor == nil {
		extractor = kv.New()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		registry:  registry,
		resolver:  resolver,
		recorder:  recorder,
		logger:    logger,
	}
}

// Parse fills string replacements, parses the query and folds the remaining
// intentions over it. Without structural intentions the raw view is returned.
func (s *Service) Parse(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := s.parse(ctx, req)
	observe("parse", start, err)
	return res, err
}

func (s *Service) parse(ctx context.Context, req Request) (Result, error) {
	replacements, rest := intention.Split(req.Intentions)

	q, err := ApplyReplacements(req.Query, replacements)
	if err != nil {
		return Result{}, fmt.Errorf("string replace: %w", err)
	}

	ps, err := parsed.Parse(q, s.extractor)
	if err != nil {
		return Result{}, fmt.Errorf("parse: %w", err)
	}

	if len(rest) == 0 {
		s.record(ctx, ps)
		raw := ps.Raw()
		return Result{Raw: &raw}, nil
	}

	for _, in := range rest {
		ps, err = s.registry.Apply(ctx, req.Scope, ps, in)
		if err != nil {
			return Result{}, err
		}
	}

	tr, err := s.timeRange(ctx, ps)
	if err != nil {
		return Result{}, err
	}

	s.record(ctx, ps)
	view := ps.View(tr, len(rest))
	return Result{View: &view}, nil
}

// Decompose reduces the base clause of the query to a wildcard and returns
// the intentions that rebuild it. Base clauses using OR or grouping are
// returned unchanged with no intentions.
func (s *Service) Decompose(ctx context.Context, req Request) (Decomposition, error) {
	start := time.Now()
	d, err := s.decompose(ctx, req)
	observe("decompose", start, err)
	return d, err
}

func (s *Service) decompose(ctx context.Context, req Request) (Decomposition, error) {
	ps, err := parsed.Parse(req.Query, s.extractor)
	if err != nil {
		return Decomposition{}, fmt.Errorf("parse: %w", err)
	}

	tr, err := s.timeRange(ctx, ps)
	if err != nil {
		return Decomposition{}, err
	}

	intentions, err := decomposeBase(ps)
	if err != nil {
		return Decomposition{}, err
	}

	return Decomposition{Search: ps.String(), Intentions: intentions, TimeRange: tr}, nil
}

func (s *Service) timeRange(ctx context.Context, ps *parsed.Search) (*parsed.TimeRange, error) {
	earliest, latest := ps.TimeBounds()
	if earliest == "" && latest == "" {
		return nil, nil
	}
	if s.resolver == nil {
		return &parsed.TimeRange{Earliest: earliest, Latest: latest}, nil
	}
	tr, err := s.resolver.Resolve(ctx, earliest, latest)
	if err != nil {
		return nil, fmt.Errorf("resolve time range: %w", err)
	}
	return &tr, nil
}

// record stores the command sequence. Failures are logged only.
func (s *Service) record(ctx context.Context, ps *parsed.Search) {
	if s.recorder == nil {
		return
	}
	cmds := make([]string, len(ps.Clauses))
	for i, c := range ps.Clauses {
		cmds[i] = strings.ToLower(c.Command)
	}
	if err := s.recorder.Record(ctx, cmds); err != nil {
		s.logger.Warn("Record command usage failed",
			zap.Strings("commands", cmds),
			zap.Error(err),
		)
	}
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ParseRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.ParseDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
