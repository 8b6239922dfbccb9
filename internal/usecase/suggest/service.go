package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/command"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
)

const (
	// SimilarityThreshold is the minimum similarity for a correction.
	SimilarityThreshold = 0.7
	// MaxCorrections caps corrections per clause.
	MaxCorrections = 3
	// DefaultNextLimit is used when Next is called without a positive limit.
	DefaultNextLimit = 5
	// MaxNextLimit caps the Next limit.
	MaxNextLimit = 50

	candidateLimit = 500
)

// Correction proposes a replacement for an unknown command.
type Correction struct {
	Clause     int     `json:"clause"`
	Original   string  `json:"original"`
	Suggested  string  `json:"suggested"`
	Similarity float64 `json:"similarity"`
	Count      int64   `json:"count"`
}

// Service suggests command corrections and continuations.
type Service struct {
	history History
}

// New creates a suggest service. history may be nil, in which case only the
// built-in catalog is used and Next returns nothing.
func New(history History) *Service {
	return &Service{history: history}
}

// DidYouMean returns corrections for every clause whose command is not built
// in. Recorded commands are candidates too, ranked by usage on ties.
func (s *Service) DidYouMean(ctx context.Context, q string) ([]Correction, error) {
	ps, err := parsed.Parse(q, nil)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	counts, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	out := []Correction{}
	for i, c := range ps.Clauses {
		name := strings.ToLower(c.Command)
		if command.Known(name) {
			continue
		}
		out = append(out, corrections(i, name, counts)...)
	}
	return out, nil
}

// Next returns the commands most often recorded after the last command of q.
func (s *Service) Next(ctx context.Context, q string, limit int) ([]command.Count, error) {
	ps, err := parsed.Parse(q, nil)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if limit <= 0 {
		limit = DefaultNextLimit
	}
	limit = min(limit, MaxNextLimit)

	if s.history == nil {
		return []command.Count{}, nil
	}
	last := strings.ToLower(ps.Clauses[len(ps.Clauses)-1].Command)
	next, err := s.history.NextCommands(ctx, last, limit)
	if err != nil {
		return nil, fmt.Errorf("next commands: %w", err)
	}
	if next == nil {
		next = []command.Count{}
	}
	return next, nil
}

// candidates merges the built-in catalog with recorded commands. Built-ins
// never seen in history have a zero count.
func (s *Service) candidates(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, name := range command.Builtin() {
		out[name] = 0
	}
	if s.history == nil {
		return out, nil
	}
	top, err := s.history.TopCommands(ctx, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("top commands: %w", err)
	}
	for _, c := range top {
		out[strings.ToLower(c.Command)] += c.Count
	}
	return out, nil
}

func corrections(clause int, name string, counts map[string]int64) []Correction {
	var out []Correction
	for cand, n := range counts {
		sim := command.Similarity(name, cand)
		if cand == name || sim < SimilarityThreshold {
			continue
		}
		out = append(out, Correction{
			Clause:     clause,
			Original:   name,
			Suggested:  cand,
			Similarity: sim,
			Count:      n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Suggested < out[j].Suggested
	})
	if len(out) > MaxCorrections {
		out = out[:MaxCorrections]
	}
	return out
}
