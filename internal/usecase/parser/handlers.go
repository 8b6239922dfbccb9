package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
	"github.com/kailas-cloud/searchlang/internal/metrics"
)

// Scope identifies the app namespace and owner a request runs under.
type Scope struct {
	Namespace string
	Owner     string
}

// Handler applies one intention to s and returns the edited search.
type Handler func(ctx context.Context, scope Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error)

// Registry maps intention names to handlers.
type Registry map[string]Handler

// DefaultRegistry returns the handlers for every structural intention.
func DefaultRegistry() Registry {
	return Registry{
		intention.AddTerm:       termHandler(parsed.AddWord),
		intention.NegateTerm:    termHandler(parsed.NegateWord),
		intention.ToggleTerm:    termHandler(toggleWord),
		intention.RemoveTerm:    termHandler(func(c *clause.Clause, w token.Token) { parsed.RemoveWord(c, w) }),
		intention.ReplaceToken:  replaceToken,
		intention.SetField:      setField,
		intention.AddCommand:    addCommand,
		intention.RemoveCommand: removeCommand,
	}
}

// Apply runs the handler registered for in.Name.
func (r Registry) Apply(ctx context.Context, scope Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
	h, ok := r[in.Name]
	if !ok {
		metrics.IntentionsAppliedTotal.WithLabelValues("unknown", "error").Inc()
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownIntention, in.Name)
	}
	out, err := h(ctx, scope, s, in)
	if err != nil {
		metrics.IntentionsAppliedTotal.WithLabelValues(in.Name, "error").Inc()
		return nil, fmt.Errorf("apply %s: %w", in.Name, err)
	}
	metrics.IntentionsAppliedTotal.WithLabelValues(in.Name, "ok").Inc()
	return out, nil
}

func termHandler(edit func(c *clause.Clause, w token.Token)) Handler {
	return func(_ context.Context, _ Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
		term, err := intention.DecodeTerm(in.Arg)
		if err != nil {
			return nil, err //nolint:wrapcheck // already carries the sentinel
		}
		target := s.Target(in.HasFlag(intention.FlagAppendClause))
		for _, w := range termTokens(term) {
			edit(target, w)
		}
		return s, nil
	}
}

// termTokens turns a string term into one literal and a field map into
// key=value fields sorted by key.
func termTokens(term intention.Term) []token.Token {
	if term.Fields == nil {
		return []token.Token{parsed.Term(term.Text)}
	}
	words := term.Words()
	out := make([]token.Token, len(words))
	for i, w := range words {
		key, value, _ := strings.Cut(w, "=")
		out[i] = parsed.FieldToken(key, value)
	}
	return out
}

func toggleWord(c *clause.Clause, w token.Token) {
	if parsed.HasWord(c, w) {
		parsed.RemoveWord(c, w)
		return
	}
	parsed.AddWord(c, w)
}

func replaceToken(_ context.Context, _ Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
	tr, err := intention.DecodeTokenReplacement(in.Arg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries the sentinel
	}
	s.ReplaceToken(tr.Old, tr.New)
	return s, nil
}

func setField(_ context.Context, _ Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
	term, err := intention.DecodeTerm(in.Arg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries the sentinel
	}
	if term.Fields == nil {
		return nil, fmt.Errorf("%w: setfield requires an object", domain.ErrUnsupportedArgument)
	}
	target := s.Target(in.HasFlag(intention.FlagAppendClause))
	for _, w := range term.Words() {
		key, value, _ := strings.Cut(w, "=")
		parsed.SetField(target, key, value)
	}
	return s, nil
}

func addCommand(_ context.Context, _ Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
	text, err := intention.DecodeString(in.Arg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries the sentinel
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "|")
	cs, err := clause.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedArgument, err)
	}
	for _, c := range cs {
		if c.Command == "" {
			return nil, fmt.Errorf("%w: empty command in %q", domain.ErrUnsupportedArgument, text)
		}
	}
	s.Append(cs...)
	return s, nil
}

func removeCommand(_ context.Context, _ Scope, s *parsed.Search, in intention.Intention) (*parsed.Search, error) {
	name, err := intention.DecodeString(in.Arg)
	if err != nil {
		return nil, err //nolint:wrapcheck // already carries the sentinel
	}
	s.RemoveCommand(strings.TrimSpace(name))
	return s, nil
}
