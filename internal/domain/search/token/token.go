// Package token splits raw search text into a flat token sequence.
package token

import (
	"errors"
	"strings"
	"unicode"

	"github.com/kailas-cloud/searchlang/internal/domain"
)

// Pipe is the clause separator.
const Pipe = "|"

// Token is one unit of search text with quote characters already removed.
type Token struct {
	Text string `json:"text"`
	// Quoted reports whether any part of the token came from a quoted or escaped span.
	// A quoted "|" is an ordinary argument, never a separator.
	Quoted bool `json:"quoted,omitempty"`
	// Literal reports whether the token opened with a quote or escape. A
	// literal is matched as text: it is never an operator, a wildcard or a
	// key=value field.
	Literal bool `json:"literal,omitempty"`
}

// IsPipe reports whether the token is an unquoted clause separator.
func (t Token) IsPipe() bool {
	return !t.Quoted && t.Text == Pipe
}

type scanner struct {
	tokens []Token
	buf    strings.Builder
	open    bool // a token is being accumulated
	quoted  bool
	literal bool
}

func (s *scanner) write(r rune) {
	s.buf.WriteRune(r)
	s.open = true
}

func (s *scanner) flush() {
	if !s.open {
		return
	}
	s.tokens = append(s.tokens, Token{Text: s.buf.String(), Quoted: s.quoted, Literal: s.literal})
	s.buf.Reset()
	s.open = false
	s.quoted = false
	s.literal = false
}

// markQuoted flags the current token as quoted, and as literal when the
// quote or escape opens it.
func (s *scanner) markQuoted() {
	if !s.open {
		s.literal = true
	}
	s.quoted = true
}

// Tokenize splits s on whitespace and unquoted pipes.
//
// Double quotes group text anywhere in a token; a single quote groups text only
// when it opens a token, so apostrophes inside words stay literal. A backslash
// escapes the next rune. Text inside balanced square brackets is a subsearch
// and is kept verbatim, brackets included. Error positions are byte offsets
// into s.
func Tokenize(s string) ([]Token, error) {
	sc := &scanner{}
	runes, offsets := decode(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, domain.NewPositionError(offsets[i], "trailing escape")
			}
			sc.markQuoted()
			i++
			sc.write(runes[i])
		case r == '"' || (r == '\'' && !sc.open):
			end, err := readQuoted(runes, i, sc)
			if err != nil {
				return nil, positioned(err, offsets)
			}
			i = end
		case r == '[':
			end, err := readSubsearch(runes, i, sc)
			if err != nil {
				return nil, positioned(err, offsets)
			}
			i = end
		case r == ']':
			return nil, domain.NewPositionError(offsets[i], "unbalanced ']'")
		case r == '|':
			sc.flush()
			sc.tokens = append(sc.tokens, Token{Text: Pipe})
		case unicode.IsSpace(r):
			sc.flush()
		default:
			sc.write(r)
		}
	}
	sc.flush()

	return sc.tokens, nil
}

// readQuoted consumes a quoted span starting at runes[start] and returns the
// index of the closing quote.
func readQuoted(runes []rune, start int, sc *scanner) (int, error) {
	q := runes[start]
	sc.markQuoted()
	sc.open = true
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 >= len(runes) {
				return 0, domain.NewPositionError(i, "trailing escape")
			}
			i++
			sc.write(runes[i])
		case q:
			return i, nil
		default:
			sc.write(runes[i])
		}
	}
	return 0, domain.NewPositionError(start, "unterminated quote")
}

// readSubsearch consumes a bracketed span starting at runes[start] and returns
// the index of the matching ']'. Quotes inside the span only suppress bracket
// counting; the text is copied unchanged.
func readSubsearch(runes []rune, start int, sc *scanner) (int, error) {
	depth := 0
	var inQuote rune
	for i := start; i < len(runes); i++ {
		r := runes[i]
		sc.write(r)
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			sc.write(runes[i])
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			}
		case r == '"':
			inQuote = r
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, domain.NewPositionError(start, "unbalanced '['")
}

// decode splits s into runes and records the byte offset of each.
func decode(s string) (runes []rune, offsets []int) {
	for i, r := range s {
		runes = append(runes, r)
		offsets = append(offsets, i)
	}
	return runes, offsets
}

// positioned converts the rune index of a scanning error into a byte offset.
func positioned(err error, offsets []int) error {
	var pe *domain.PositionError
	if errors.As(err, &pe) && pe.Pos < len(offsets) {
		return domain.NewPositionError(offsets[pe.Pos], pe.Reason)
	}
	return err
}

// Strings returns the text of every token.
func Strings(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

// Quote renders text so that Tokenize reads it back as a single token with the
// same text. Subsearches are returned as is.
func Quote(text string) string {
	if text == "" {
		return `""`
	}
	if IsSubsearch(text) {
		return text
	}
	if !needsQuoting(text) {
		return text
	}
	return Enclose(text)
}

// Enclose wraps text in double quotes, escaping quotes and backslashes.
func Enclose(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte('"')
	for _, r := range text {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// IsSubsearch reports whether text is a single balanced bracketed span.
func IsSubsearch(text string) bool {
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return false
	}
	toks, err := Tokenize(text)
	return err == nil && len(toks) == 1 && toks[0].Text == text
}

func needsQuoting(text string) bool {
	if strings.HasPrefix(text, "'") {
		return true
	}
	return strings.ContainsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '|' || r == '\\' || r == '[' || r == ']'
	})
}
