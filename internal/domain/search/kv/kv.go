// Package kv separates key=value fields from bare search terms.
package kv

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

// TermsKey is the catch-all key holding un-keyed terms in Fields.Map.
const TermsKey = "_terms"

// Field is a single key=value pair.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// String renders the field as search text.
func (f Field) String() string {
	return f.Key + "=" + token.Quote(f.Value)
}

// Fields is an ordered list of fields with unique keys.
type Fields []Field

// Get returns the value for key.
func (fs Fields) Get(key string) (string, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place or appends a new field.
func (fs Fields) Set(key, value string) Fields {
	for i := range fs {
		if fs[i].Key == key {
			fs[i].Value = value
			return fs
		}
	}
	return append(fs, Field{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (fs Fields) Delete(key string) (Fields, bool) {
	for i := range fs {
		if fs[i].Key == key {
			return append(fs[:i:i], fs[i+1:]...), true
		}
	}
	return fs, false
}

// Map flattens fields and residual terms into a single mapping.
func (fs Fields) Map(terms string) map[string]string {
	m := make(map[string]string, len(fs)+1)
	for _, f := range fs {
		m[f.Key] = f.Value
	}
	if terms != "" {
		m[TermsKey] = terms
	}
	return m
}

// Extractor splits clause text into residual terms and fields.
type Extractor interface {
	Extract(text string, preserveOrder bool) (terms string, fields Fields)
}

// Default is the built-in extractor. Keys are case-sensitive and a repeated
// key keeps its first position but takes the last value.
type Default struct{}

var _ Extractor = Default{}

// New returns the built-in extractor.
func New() Default { return Default{} }

// Extract implements Extractor. Text that fails to tokenize falls back to
// whitespace splitting so that extraction never fails.
func (Default) Extract(text string, preserveOrder bool) (string, Fields) {
	toks, err := token.Tokenize(text)
	if err != nil {
		words := strings.Fields(text)
		toks = make([]token.Token, len(words))
		for i, w := range words {
			toks[i] = token.Token{Text: w, Quoted: true}
		}
	}
	terms, fields := SplitTokens(toks)
	if !preserveOrder {
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	}
	return JoinTerms(terms), fields
}

// SplitTokens separates tokens into bare terms and fields in source order.
// Literal tokens are always terms.
func SplitTokens(toks []token.Token) (terms []token.Token, fields Fields) {
	terms = []token.Token{}
	for _, t := range toks {
		if !t.Literal {
			if k, v, ok := Pair(t.Text); ok {
				fields = fields.Set(k, v)
				continue
			}
		}
		terms = append(terms, t)
	}
	return terms, fields
}

// Pair parses a single key=value word. Comparison operators (!=, <=, >=, ==)
// and keys outside [A-Za-z0-9_.:-] are not fields.
func Pair(word string) (key, value string, ok bool) {
	i := strings.IndexByte(word, '=')
	if i <= 0 {
		return "", "", false
	}
	key, value = word[:i], word[i+1:]
	if strings.HasPrefix(value, "=") {
		return "", "", false
	}
	for _, r := range key {
		if !isKeyRune(r) {
			return "", "", false
		}
	}
	return key, value, true
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == ':', r == '-':
		return true
	}
	return false
}

// Render writes t as search text that tokenizes back to an equivalent token.
// Unquoted source text is returned as is. Fields keep a bare key so they stay
// fields. Literals whose bare text would read as an operator, a wildcard, a
// group, a subsearch or a field are quoted.
func Render(t token.Token) string {
	switch {
	case t.Literal:
		if reserved(t.Text) {
			return token.Enclose(t.Text)
		}
		return token.Quote(t.Text)
	case !t.Quoted:
		return t.Text
	}
	if k, v, ok := Pair(t.Text); ok {
		return k + "=" + token.Quote(v)
	}
	return token.Quote(t.Text)
}

// Equal reports whether a and b render to the same search text.
func Equal(a, b token.Token) bool {
	return Render(a) == Render(b)
}

func reserved(text string) bool {
	switch text {
	case "NOT", "OR", "AND", "*":
		return true
	}
	if _, _, ok := Pair(text); ok {
		return true
	}
	return strings.HasPrefix(text, "(") || strings.HasSuffix(text, ")") || token.IsSubsearch(text)
}

// JoinTerms renders terms as search text.
func JoinTerms(terms []token.Token) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = Render(t)
	}
	return strings.Join(parts, " ")
}
