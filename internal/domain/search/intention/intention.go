// Package intention models structured edit requests applied to a parsed search.
package intention

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain"
)

// Intention names.
const (
	StringReplace = "stringreplace"
	AddTerm       = "addterm"
	NegateTerm    = "negateterm"
	ToggleTerm    = "toggleterm"
	RemoveTerm    = "removeterm"
	ReplaceToken  = "replacetoken"
	SetField      = "setfield"
	AddCommand    = "addcommand"
	RemoveCommand = "removecommand"
)

// FlagAppendClause makes term intentions target a new trailing search clause
// instead of the base search.
const FlagAppendClause = "appendclause"

// Intention is a single named edit.
type Intention struct {
	Name  string          `json:"name"`
	Arg   json.RawMessage `json:"arg,omitempty"`
	Flags []string        `json:"flags,omitempty"`
}

// New builds an intention, encoding arg as JSON.
func New(name string, arg any, flags ...string) (Intention, error) {
	raw, err := json.Marshal(arg)
	if err != nil {
		return Intention{}, fmt.Errorf("%w: encode %s arg: %w", domain.ErrInvalidIntention, name, err)
	}
	return Intention{Name: name, Arg: raw, Flags: flags}, nil
}

// HasFlag reports whether flag is set.
func (i Intention) HasFlag(flag string) bool {
	for _, f := range i.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// DecodeList decodes a JSON array of intentions. Blank input is an empty list.
func DecodeList(raw string) ([]Intention, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []Intention{}, nil
	}
	var list []Intention
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidIntention, err)
	}
	for idx, in := range list {
		if in.Name == "" {
			return nil, fmt.Errorf("%w: intention %d has no name", domain.ErrInvalidIntention, idx)
		}
		list[idx].Name = strings.ToLower(in.Name)
	}
	if list == nil {
		list = []Intention{}
	}
	return list, nil
}

// Split extracts stringreplace intentions, preserving the order of both parts.
func Split(list []Intention) (replacements, rest []Intention) {
	rest = make([]Intention, 0, len(list))
	for _, in := range list {
		if in.Name == StringReplace {
			replacements = append(replacements, in)
			continue
		}
		rest = append(rest, in)
	}
	return replacements, rest
}

// Replacement describes how a $token$ placeholder is filled.
type Replacement struct {
	Value       string `json:"value"`
	Default     string `json:"default"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
	FillOnEmpty bool   `json:"fillOnEmpty"`
}

// Chosen returns the value, falling back to the default when the value is empty.
func (r Replacement) Chosen() string {
	if r.Value != "" {
		return r.Value
	}
	return r.Default
}

// DecodeReplacements decodes a stringreplace argument.
func DecodeReplacements(arg json.RawMessage) (map[string]Replacement, error) {
	out := map[string]Replacement{}
	if len(bytes.TrimSpace(arg)) == 0 || string(bytes.TrimSpace(arg)) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(arg, &out); err != nil {
		return nil, fmt.Errorf("%w: stringreplace arg: %w", domain.ErrInvalidIntention, err)
	}
	return out, nil
}

// SortedKeys returns the placeholder names in a stable order.
func SortedKeys(m map[string]Replacement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Term is a term argument: either a bare search term or a set of field values.
type Term struct {
	Text   string
	Fields map[string]string
}

// DecodeTerm decodes a term argument given as a JSON string or object.
// Object values may be strings, numbers or booleans.
func DecodeTerm(arg json.RawMessage) (Term, error) {
	trimmed := bytes.TrimSpace(arg)
	if len(trimmed) == 0 {
		return Term{}, fmt.Errorf("%w: missing term", domain.ErrUnsupportedArgument)
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Term{}, fmt.Errorf("%w: %w", domain.ErrUnsupportedArgument, err)
		}
		if s == "" {
			return Term{}, fmt.Errorf("%w: empty term", domain.ErrUnsupportedArgument)
		}
		return Term{Text: s}, nil
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Term{}, fmt.Errorf("%w: %w", domain.ErrUnsupportedArgument, err)
		}
		if len(raw) == 0 {
			return Term{}, fmt.Errorf("%w: empty field map", domain.ErrUnsupportedArgument)
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch tv := v.(type) {
			case string:
				fields[k] = tv
			case float64, bool:
				fields[k] = fmt.Sprint(tv)
			default:
				return Term{}, fmt.Errorf("%w: field %q has %T value", domain.ErrUnsupportedArgument, k, v)
			}
		}
		return Term{Fields: fields}, nil
	default:
		return Term{}, fmt.Errorf("%w: term must be a string or object", domain.ErrUnsupportedArgument)
	}
}

// Words renders the term as search words, fields sorted by key.
func (t Term) Words() []string {
	if t.Fields == nil {
		return []string{t.Text}
	}
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	words := make([]string, len(keys))
	for i, k := range keys {
		words[i] = k + "=" + t.Fields[k]
	}
	return words
}

// TokenReplacement is a replacetoken argument.
type TokenReplacement struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// DecodeTokenReplacement decodes a replacetoken argument.
func DecodeTokenReplacement(arg json.RawMessage) (TokenReplacement, error) {
	var tr TokenReplacement
	if err := json.Unmarshal(arg, &tr); err != nil {
		return TokenReplacement{}, fmt.Errorf("%w: replacetoken arg: %w", domain.ErrUnsupportedArgument, err)
	}
	if tr.Old == "" {
		return TokenReplacement{}, fmt.Errorf("%w: replacetoken requires old", domain.ErrUnsupportedArgument)
	}
	return tr, nil
}

// DecodeString decodes a string argument.
func DecodeString(arg json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(arg, &s); err != nil {
		return "", fmt.Errorf("%w: expected string: %w", domain.ErrUnsupportedArgument, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty string", domain.ErrUnsupportedArgument)
	}
	return s, nil
}
