package parsed

import (
	"testing"

	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
)

func mustParse(t *testing.T, q string) *Search {
	t.Helper()
	s, err := Parse(q, nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", q, err)
	}
	return s
}

func TestTarget(t *testing.T) {
	s := mustParse(t, "error | stats count")
	if got := s.Target(false); got != &s.Clauses[0] {
		t.Error("Target(false) should be the base clause")
	}

	tail := s.Target(true)
	if len(s.Clauses) != 3 || tail.Command != SearchCommand {
		t.Fatalf("Target(true) did not append a search clause: %s", s)
	}
	if again := s.Target(true); again != &s.Clauses[2] || len(s.Clauses) != 3 {
		t.Error("Target(true) should reuse the trailing search clause")
	}

	g := mustParse(t, "| makeresults")
	if c := g.Target(false); c.Command != SearchCommand || len(g.Clauses) != 2 {
		t.Errorf("generating search target = %+v", g.Clauses)
	}
}

func TestWordEdits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		edit func(c *clause.Clause)
		want string
	}{
		{"add", "a", func(c *clause.Clause) { AddWord(c, Term("b")) }, "a b"},
		{"add existing", "a", func(c *clause.Clause) { AddWord(c, Term("a")) }, "a"},
		{"add matches quoted form", `"a"`, func(c *clause.Clause) { AddWord(c, Term("a")) }, "a"},
		{"add replaces wildcard", "*", func(c *clause.Clause) { AddWord(c, Term("a")) }, "a"},
		{"add flips negation", "x NOT a", func(c *clause.Clause) { AddWord(c, Term("a")) }, "x a"},
		{"add literal operator", "x", func(c *clause.Clause) { AddWord(c, Term("NOT")) }, `x "NOT"`},
		{"add literal pair", "x", func(c *clause.Clause) { AddWord(c, Term("a=b")) }, `x "a=b"`},
		{"add field", "x", func(c *clause.Clause) { AddWord(c, FieldToken("host", "web 01")) }, `x host="web 01"`},
		{"negate", "a b", func(c *clause.Clause) { NegateWord(c, Term("a")) }, "b NOT a"},
		{"negate twice", "NOT a", func(c *clause.Clause) { NegateWord(c, Term("a")) }, "NOT a"},
		{"negate after quoted not", `"NOT" a`, func(c *clause.Clause) { NegateWord(c, Term("a")) }, `"NOT" NOT a`},
		{"remove both forms", "a b NOT a", func(c *clause.Clause) { RemoveWord(c, Term("a")) }, "b"},
		{"remove last restores wildcard", "a", func(c *clause.Clause) { RemoveWord(c, Term("a")) }, "*"},
		{"remove keeps literal wildcard", `"*" a`, func(c *clause.Clause) { RemoveWord(c, Term("a")) }, `"*"`},
		{"remove field not literal", `host=a "host=a"`, func(c *clause.Clause) { RemoveWord(c, FieldToken("host", "a")) }, `"host=a"`},
		{"set field replaces", "host=a x host=b", func(c *clause.Clause) { SetField(c, "host", "c") }, "host=c x"},
		{"set field keeps negation", "NOT host=a", func(c *clause.Clause) { SetField(c, "host", "c") }, "NOT host=a host=c"},
		{"set field skips literal", `"host=a"`, func(c *clause.Clause) { SetField(c, "host", "c") }, `"host=a" host=c`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &mustParse(t, tc.in).Clauses[0]
			tc.edit(c)
			if got := c.Args(); got != tc.want {
				t.Errorf("args = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReplaceToken_KeepsQuoting(t *testing.T) {
	s := mustParse(t, `"OR" x | stats count by OR`)
	if n := s.ReplaceToken("OR", "AND"); n != 2 {
		t.Fatalf("replaced %d tokens", n)
	}
	if got := s.String(); got != `search "AND" x | stats count by AND` {
		t.Errorf("String() = %q", got)
	}
}

func TestRemoveCommand(t *testing.T) {
	s := mustParse(t, "a | head 5 | sort x | HEAD 1")
	if n := s.RemoveCommand("head"); n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if s.String() != "search a | sort x" {
		t.Errorf("String() = %q", s.String())
	}
	if n := s.RemoveCommand("search"); n != 0 {
		t.Error("the first clause must never be removed")
	}
}

func TestReplaceToken(t *testing.T) {
	s := mustParse(t, "host=a error | stats count by host=a")
	if n := s.ReplaceToken("host=a", "host=b"); n != 2 {
		t.Errorf("replaced = %d", n)
	}
	if s.String() != "search host=b error | stats count by host=b" {
		t.Errorf("String() = %q", s.String())
	}
	s.ReplaceToken("error", "")
	if s.String() != "search host=b | stats count by host=b" {
		t.Errorf("String() after delete = %q", s.String())
	}
}
