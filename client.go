// Package searchlang parses search-language queries and applies structured
// edits ("intentions") to them in-process.
package searchlang

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/timemod"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
)

// Client is the searchlang SDK entry point.
type Client struct {
	extractor kv.Extractor
	parser    *parseruc.Service
}

// New creates a Client. Time modifiers are resolved locally unless
// WithTimeResolver is given.
func New(opts ...Option) *Client {
	cfg := &clientConfig{
		resolver: timemod.NewResolver(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	ex := kv.New()
	return &Client{
		extractor: ex,
		parser:    parseruc.New(ex, parseruc.DefaultRegistry(), cfg.resolver, nil, cfg.logger),
	}
}

// Tokenize splits q into tokens with quotes removed. Pipes are returned as "|"
// tokens.
func (c *Client) Tokenize(q string) ([]string, error) {
	toks, err := token.Tokenize(q)
	if err != nil {
		return nil, fmt.Errorf("searchlang: %w", err)
	}
	return token.Strings(toks), nil
}

// Clauses splits q into pipe-separated clauses without any normalization.
func (c *Client) Clauses(q string) ([]Clause, error) {
	cs, err := clause.Parse(q)
	if err != nil {
		return nil, fmt.Errorf("searchlang: %w", err)
	}
	return cs, nil
}

// Fields extracts key=value pairs from clause argument text, in order of
// appearance, and returns the remaining text.
func (c *Client) Fields(args string) (terms string, fields Fields) {
	return c.extractor.Extract(args, true)
}

// Parse applies intentions to q. Without intentions, or with only string
// replacements, the result holds the raw view; otherwise the full view.
func (c *Client) Parse(ctx context.Context, q string, intentions ...Intention) (ParseResult, error) {
	if intentions == nil {
		intentions = []Intention{}
	}
	res, err := c.parser.Parse(ctx, parseruc.Request{Query: q, Intentions: intentions})
	if err != nil {
		return ParseResult{}, fmt.Errorf("searchlang: %w", err)
	}
	return res, nil
}

// Decompose reduces the base clause of q to "search *" and returns the
// intentions that rebuild it.
func (c *Client) Decompose(ctx context.Context, q string) (Decomposition, error) {
	d, err := c.parser.Decompose(ctx, parseruc.Request{Query: q})
	if err != nil {
		return Decomposition{}, fmt.Errorf("searchlang: %w", err)
	}
	return d, nil
}

// NewIntention builds an intention with a JSON-encoded argument.
func NewIntention(name string, arg any, flags ...string) (Intention, error) {
	in, err := intention.New(name, arg, flags...)
	if err != nil {
		return Intention{}, fmt.Errorf("searchlang: %w", err)
	}
	return in, nil
}

// ParseIntentions decodes a JSON array of intentions.
func ParseIntentions(raw string) ([]Intention, error) {
	list, err := intention.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("searchlang: %w", err)
	}
	return list, nil
}
