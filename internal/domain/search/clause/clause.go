// Package clause groups a token sequence into pipe-separated command clauses.
package clause

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

// Clause is one pipe-separated stage of a search.
type Clause struct {
	Command string        `json:"command"`
	Tokens  []token.Token `json:"tokens"`
}

// Build partitions tokens into clauses at every unquoted pipe token.
// The first token of the sequence, and the first token after each pipe, is the
// clause command. A leading pipe yields a first clause with an empty command,
// and empty input yields a single empty clause, so n pipes always give n+1 clauses.
func Build(tokens []token.Token) []Clause {
	out := make([]Clause, 0, 1)
	cur := Clause{Tokens: []token.Token{}}
	started := false

	for _, t := range tokens {
		if t.IsPipe() {
			out = append(out, cur)
			cur = Clause{Tokens: []token.Token{}}
			started = false
			continue
		}
		if !started {
			cur.Command = t.Text
			started = true
			continue
		}
		cur.Tokens = append(cur.Tokens, t)
	}
	return append(out, cur)
}

// Parse tokenizes s and builds its clauses.
func Parse(s string) ([]Clause, error) {
	toks, err := token.Tokenize(s)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return Build(toks), nil
}

// Args returns the clause tokens rendered as search text and joined by
// single spaces.
func (c Clause) Args() string {
	return kv.JoinTerms(c.Tokens)
}

// Words returns the text of every clause token.
func (c Clause) Words() []string {
	return token.Strings(c.Tokens)
}

// String renders the clause back to search text.
func (c Clause) String() string {
	args := c.Args()
	if args == "" {
		return c.Command
	}
	if c.Command == "" {
		return args
	}
	return c.Command + " " + args
}

// Join renders clauses as a pipeline.
func Join(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}
