// Package parsed holds the typed representation of a full search pipeline.
package parsed

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

// SearchCommand is the implicit command of a non-generating search.
const SearchCommand = "search"

// Time bound field names read from the base clause.
const (
	EarliestField = "earliest"
	LatestField   = "latest"
)

// Search is a parsed pipeline. Clauses are edited in place by intentions.
type Search struct {
	Clauses []clause.Clause
	// Generating is set when the query starts with a pipe, meaning the first
	// command produces events itself and there is no base search clause.
	Generating bool

	ex kv.Extractor
}

// Parse parses q. A leading pipe marks a generating search; otherwise an
// implicit search command is prepended when missing.
func Parse(q string, ex kv.Extractor) (*Search, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: empty search", domain.ErrInvalidQuery)
	}
	if ex == nil {
		ex = kv.New()
	}

	toks, err := token.Tokenize(q)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty search", domain.ErrInvalidQuery)
	}

	s := &Search{ex: ex}
	switch {
	case toks[0].IsPipe():
		s.Generating = true
		toks = toks[1:]
	case !isSearch(toks[0]):
		toks = append([]token.Token{{Text: SearchCommand}}, toks...)
	}

	s.Clauses = clause.Build(toks)
	for i, c := range s.Clauses {
		if c.Command == "" {
			return nil, fmt.Errorf("%w: empty command in clause %d", domain.ErrInvalidQuery, i+1)
		}
	}
	return s, nil
}

func isSearch(t token.Token) bool {
	return !t.Quoted && strings.EqualFold(t.Text, SearchCommand)
}

// String serializes the search back to search text.
func (s *Search) String() string {
	text := clause.Join(s.Clauses)
	if s.Generating {
		return "| " + text
	}
	return text
}

// Base returns the base search clause, or nil for generating searches.
func (s *Search) Base() *clause.Clause {
	if s.Generating || len(s.Clauses) == 0 {
		return nil
	}
	return &s.Clauses[0]
}

// Extractor returns the field extractor the search was parsed with.
func (s *Search) Extractor() kv.Extractor { return s.ex }

// Args extracts residual terms and fields from a clause in source order.
func (s *Search) Args(c clause.Clause) (string, kv.Fields) {
	return s.ex.Extract(c.Args(), true)
}

// TimeBounds returns the earliest and latest modifiers set in the base clause.
func (s *Search) TimeBounds() (earliest, latest string) {
	base := s.Base()
	if base == nil {
		return "", ""
	}
	_, fields := s.Args(*base)
	earliest, _ = fields.Get(EarliestField)
	latest, _ = fields.Get(LatestField)
	return earliest, latest
}

// TimeRange is a resolved pair of time bounds.
type TimeRange struct {
	Earliest     string     `json:"earliest,omitempty"`
	Latest       string     `json:"latest,omitempty"`
	EarliestTime *time.Time `json:"earliestTime,omitempty"`
	LatestTime   *time.Time `json:"latestTime,omitempty"`
}

// RawClause is a clause in the raw view.
type RawClause struct {
	Command string `json:"command"`
	RawArgs string `json:"rawargs"`
}

// RawView is the unprocessed representation returned when no structural
// edits were requested.
type RawView struct {
	Search  string      `json:"search"`
	Clauses []RawClause `json:"clauses"`
}

// Args is the extracted argument breakdown of a clause.
type Args struct {
	Fields kv.Fields `json:"fields"`
	Terms  string    `json:"terms"`
}

// ClauseView is a clause in the full view.
type ClauseView struct {
	Command string `json:"command"`
	RawArgs string `json:"rawargs"`
	Args    Args   `json:"args"`
}

// View is the full representation of an edited search.
type View struct {
	Search     string       `json:"search"`
	Clauses    []ClauseView `json:"clauses"`
	TimeRange  *TimeRange   `json:"timerange,omitempty"`
	Intentions int          `json:"intentions"`
}

// Raw returns the raw view.
func (s *Search) Raw() RawView {
	out := RawView{Search: s.String(), Clauses: make([]RawClause, len(s.Clauses))}
	for i, c := range s.Clauses {
		out.Clauses[i] = RawClause{Command: c.Command, RawArgs: c.Args()}
	}
	return out
}

// View returns the full view. applied is the number of intentions folded in.
func (s *Search) View(tr *TimeRange, applied int) View {
	out := View{
		Search:     s.String(),
		Clauses:    make([]ClauseView, len(s.Clauses)),
		TimeRange:  tr,
		Intentions: applied,
	}
	for i, c := range s.Clauses {
		terms, fields := s.Args(c)
		if fields == nil {
			fields = kv.Fields{}
		}
		out.Clauses[i] = ClauseView{
			Command: c.Command,
			RawArgs: c.Args(),
			Args:    Args{Fields: fields, Terms: terms},
		}
	}
	return out
}
