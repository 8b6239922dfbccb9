package parsed

import (
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

// Not is the negation operator of the search language.
const Not = "NOT"

// Wildcard is the match-all term of an otherwise empty search clause.
const Wildcard = "*"

// Target returns the search clause term edits apply to. With appendClause, or
// when the search has no base clause, a trailing search clause is reused or
// created.
func (s *Search) Target(appendClause bool) *clause.Clause {
	if !appendClause {
		if base := s.Base(); base != nil {
			return base
		}
	}
	if n := len(s.Clauses); n > 1 || (n == 1 && s.Generating) {
		last := &s.Clauses[n-1]
		if strings.EqualFold(last.Command, SearchCommand) {
			return last
		}
	}
	s.Clauses = append(s.Clauses, clause.Clause{Command: SearchCommand, Tokens: []token.Token{}})
	return &s.Clauses[len(s.Clauses)-1]
}

// Append adds clauses to the end of the pipeline.
func (s *Search) Append(cs ...clause.Clause) {
	s.Clauses = append(s.Clauses, cs...)
}

// RemoveCommand drops every clause after the first whose command matches
// name, case-insensitively. The first clause is never removed.
func (s *Search) RemoveCommand(name string) int {
	if len(s.Clauses) == 0 {
		return 0
	}
	kept := s.Clauses[:1]
	for _, c := range s.Clauses[1:] {
		if strings.EqualFold(c.Command, name) {
			continue
		}
		kept = append(kept, c)
	}
	removed := len(s.Clauses) - len(kept)
	s.Clauses = kept
	return removed
}

// ReplaceToken substitutes old with repl in every clause's arguments,
// keeping the quoting of the replaced token. An empty repl deletes the token.
func (s *Search) ReplaceToken(old, repl string) int {
	n := 0
	for i := range s.Clauses {
		toks := s.Clauses[i].Tokens[:0]
		for _, t := range s.Clauses[i].Tokens {
			if t.Text != old {
				toks = append(toks, t)
				continue
			}
			n++
			if repl != "" {
				t.Text = repl
				toks = append(toks, t)
			}
		}
		s.Clauses[i].Tokens = toks
	}
	return n
}

// Term returns w as a literal search term.
func Term(w string) token.Token {
	return token.Token{Text: w, Quoted: true, Literal: true}
}

// FieldToken returns key=value as a field token.
func FieldToken(key, value string) token.Token {
	return token.Token{Text: key + "=" + value, Quoted: true}
}

// IsNot reports whether t is the negation operator.
func IsNot(t token.Token) bool {
	return !t.Literal && t.Text == Not
}

// IsWildcard reports whether t is the match-all term.
func IsWildcard(t token.Token) bool {
	return !t.Literal && t.Text == Wildcard
}

// HasWord reports whether w appears in c as a positive term.
func HasWord(c *clause.Clause, w token.Token) bool {
	return positive(c.Tokens, w) >= 0
}

// HasNegated reports whether "NOT w" appears in c.
func HasNegated(c *clause.Clause, w token.Token) bool {
	return negated(c.Tokens, w) >= 0
}

// AddWord adds w as a positive term. A negated occurrence is flipped and an
// existing positive occurrence is left as is.
func AddWord(c *clause.Clause, w token.Token) {
	if HasWord(c, w) {
		return
	}
	if i := negated(c.Tokens, w); i >= 0 {
		c.Tokens = append(c.Tokens[:i:i], c.Tokens[i+1:]...)
		return
	}
	dropWildcard(c)
	c.Tokens = append(c.Tokens, w)
}

// NegateWord adds "NOT w", removing any positive occurrence of w.
func NegateWord(c *clause.Clause, w token.Token) {
	removePositive(c, w)
	if HasNegated(c, w) {
		return
	}
	dropWildcard(c)
	c.Tokens = append(c.Tokens, token.Token{Text: Not}, w)
}

// RemoveWord removes every positive and negated occurrence of w.
func RemoveWord(c *clause.Clause, w token.Token) bool {
	removed := removePositive(c, w)
	for {
		i := negated(c.Tokens, w)
		if i < 0 {
			break
		}
		c.Tokens = append(c.Tokens[:i:i], c.Tokens[i+2:]...)
		removed = true
	}
	if len(c.Tokens) == 0 && strings.EqualFold(c.Command, SearchCommand) {
		c.Tokens = append(c.Tokens, token.Token{Text: Wildcard})
	}
	return removed
}

// SetField replaces every positive key=... field in c with a single key=value
// at the position of the first one, or appends it. Literal terms that merely
// look like fields are left alone.
func SetField(c *clause.Clause, key, value string) {
	word := FieldToken(key, value)
	at := -1
	toks := make([]token.Token, 0, len(c.Tokens)+1)
	for i, t := range c.Tokens {
		if isField(t, key) && !(i > 0 && IsNot(c.Tokens[i-1])) {
			if at < 0 {
				at = len(toks)
				toks = append(toks, word)
			}
			continue
		}
		toks = append(toks, t)
	}
	c.Tokens = toks
	if at < 0 {
		dropWildcard(c)
		c.Tokens = append(c.Tokens, word)
	}
}

func isField(t token.Token, key string) bool {
	if t.Literal {
		return false
	}
	k, _, ok := kv.Pair(t.Text)
	return ok && k == key
}

func removePositive(c *clause.Clause, w token.Token) bool {
	removed := false
	for {
		i := positive(c.Tokens, w)
		if i < 0 {
			break
		}
		c.Tokens = append(c.Tokens[:i:i], c.Tokens[i+1:]...)
		removed = true
	}
	return removed
}

// positive returns the index of w not preceded by NOT, or -1.
func positive(toks []token.Token, w token.Token) int {
	for i, t := range toks {
		if kv.Equal(t, w) && (i == 0 || !IsNot(toks[i-1])) {
			return i
		}
	}
	return -1
}

// negated returns the index of the NOT preceding w, or -1.
func negated(toks []token.Token, w token.Token) int {
	for i := 0; i+1 < len(toks); i++ {
		if IsNot(toks[i]) && kv.Equal(toks[i+1], w) {
			return i
		}
	}
	return -1
}

func dropWildcard(c *clause.Clause) {
	if len(c.Tokens) == 1 && IsWildcard(c.Tokens[0]) {
		c.Tokens = c.Tokens[:0]
	}
}
