package parser

import (
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

// decomposeBase turns the base clause into addterm/negateterm intentions and
// reduces it to "search *". Searches without a base clause, or whose base
// clause uses OR, grouping or a subsearch, are left unchanged.
func decomposeBase(ps *parsed.Search) ([]intention.Intention, error) {
	out := []intention.Intention{}
	base := ps.Base()
	if base == nil || !decomposable(base.Tokens) {
		return out, nil
	}

	toks := base.Tokens
	for i := 0; i < len(toks); i++ {
		name, word := intention.AddTerm, toks[i]
		switch {
		case parsed.IsWildcard(word), isOperator(word, "AND"):
			continue
		case parsed.IsNot(word):
			if i+1 >= len(toks) {
				continue
			}
			i++
			name, word = intention.NegateTerm, toks[i]
		}

		in, err := intention.New(name, termArg(word))
		if err != nil {
			return nil, err //nolint:wrapcheck // already carries the sentinel
		}
		out = append(out, in)
	}

	base.Command = parsed.SearchCommand
	base.Tokens = []token.Token{{Text: parsed.Wildcard}}
	return out, nil
}

// termArg encodes a key=value field as a field object and anything else,
// literals included, as a bare term.
func termArg(t token.Token) any {
	if !t.Literal {
		if k, v, ok := kv.Pair(t.Text); ok {
			return map[string]string{k: v}
		}
	}
	return t.Text
}

func isOperator(t token.Token, op string) bool {
	return !t.Literal && t.Text == op
}

func decomposable(toks []token.Token) bool {
	for _, t := range toks {
		if t.Literal {
			continue
		}
		switch {
		case t.Text == "OR", token.IsSubsearch(t.Text):
			return false
		case strings.HasPrefix(t.Text, "("):
			return false
		case strings.HasSuffix(t.Text, ")") && !strings.Contains(t.Text, "("):
			return false
		}
	}
	return true
}
