package kv

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
)

func TestExtract_FieldsAndTerms(t *testing.T) {
	terms, fields := New().Extract("index=main host=foo searchterm", true)
	if terms != "searchterm" {
		t.Errorf("terms = %q, want %q", terms, "searchterm")
	}
	want := Fields{{Key: "index", Value: "main"}, {Key: "host", Value: "foo"}}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %+v, want %+v", fields, want)
	}
}

func TestExtract_SortedWhenOrderNotPreserved(t *testing.T) {
	_, fields := New().Extract("sourcetype=access host=a index=main", false)
	got := []string{fields[0].Key, fields[1].Key, fields[2].Key}
	want := []string{"host", "index", "sourcetype"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestExtract_DuplicateKeyLastWins(t *testing.T) {
	_, fields := New().Extract("host=a index=main host=b", true)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "host" || fields[0].Value != "b" {
		t.Errorf("fields[0] = %+v, want host=b at first position", fields[0])
	}
}

func TestExtract_CaseSensitiveKeys(t *testing.T) {
	_, fields := New().Extract("Host=a host=b", true)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %+v", fields)
	}
}

func TestExtract_QuotedValue(t *testing.T) {
	terms, fields := New().Extract(`host="web 01" "two words"`, true)
	if v, _ := fields.Get("host"); v != "web 01" {
		t.Errorf("host = %q", v)
	}
	if terms != `"two words"` {
		t.Errorf("terms = %q", terms)
	}
}

func TestExtract_UnbalancedFallsBack(t *testing.T) {
	terms, fields := New().Extract(`a=1 "open`, true)
	if v, _ := fields.Get("a"); v != "1" {
		t.Errorf("a = %q", v)
	}
	if terms != `"\"open"` {
		t.Errorf("terms = %q", terms)
	}
}

func TestPair(t *testing.T) {
	tests := []struct {
		word  string
		key   string
		value string
		ok    bool
	}{
		{"host=foo", "host", "foo", true},
		{"host=", "host", "", true},
		{"a.b:c-d_e=1", "a.b:c-d_e", "1", true},
		{"x=a=b", "x", "a=b", true},
		{"=foo", "", "", false},
		{"host!=foo", "", "", false},
		{"count<=5", "", "", false},
		{"count>=5", "", "", false},
		{"a==b", "", "", false},
		{"avg(x)=1", "", "", false},
		{"plain", "", "", false},
	}

	for _, tc := range tests {
		k, v, ok := Pair(tc.word)
		if ok != tc.ok || k != tc.key || v != tc.value {
			t.Errorf("Pair(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.word, k, v, ok, tc.key, tc.value, tc.ok)
		}
	}
}

func TestFields_SetDeleteMap(t *testing.T) {
	var fs Fields
	fs = fs.Set("a", "1")
	fs = fs.Set("b", "2")
	fs = fs.Set("a", "3")

	if len(fs) != 2 {
		t.Fatalf("len = %d", len(fs))
	}
	if v, ok := fs.Get("a"); !ok || v != "3" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	fs, ok := fs.Delete("a")
	if !ok {
		t.Error("Delete(a) reported missing")
	}
	if _, ok := fs.Get("a"); ok {
		t.Error("a still present after delete")
	}
	if _, ok := fs.Delete("zzz"); ok {
		t.Error("Delete(zzz) reported present")
	}

	m := fs.Map("x y")
	if m["b"] != "2" || m[TermsKey] != "x y" {
		t.Errorf("Map = %v", m)
	}
	if _, ok := fs.Map("")[TermsKey]; ok {
		t.Error("empty terms must not produce _terms key")
	}
}

func TestField_String(t *testing.T) {
	f := Field{Key: "host", Value: "web 01"}
	if f.String() != `host="web 01"` {
		t.Errorf("String() = %q", f.String())
	}
}

func TestExtract_LiteralsAreTerms(t *testing.T) {
	terms, fields := New().Extract(`"a=b" x=1 "NOT" \*`, true)
	if len(fields) != 1 || fields[0].Key != "x" {
		t.Errorf("fields = %+v", fields)
	}
	if terms != `"a=b" "NOT" "*"` {
		t.Errorf("terms = %q", terms)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		tok  token.Token
		want string
	}{
		{"bare", token.Token{Text: "error"}, "error"},
		{"bare subsearch", token.Token{Text: "a[b c]"}, "a[b c]"},
		{"literal word", token.Token{Text: "error", Quoted: true, Literal: true}, "error"},
		{"literal phrase", token.Token{Text: "a b", Quoted: true, Literal: true}, `"a b"`},
		{"literal operator", token.Token{Text: "OR", Quoted: true, Literal: true}, `"OR"`},
		{"literal wildcard", token.Token{Text: "*", Quoted: true, Literal: true}, `"*"`},
		{"literal pair", token.Token{Text: "k=v", Quoted: true, Literal: true}, `"k=v"`},
		{"literal group", token.Token{Text: "(x", Quoted: true, Literal: true}, `"(x"`},
		{"quoted field", token.Token{Text: "host=web 01", Quoted: true}, `host="web 01"`},
		{"quoted field empty", token.Token{Text: "host=", Quoted: true}, `host=""`},
		{"quoted non field", token.Token{Text: "ab c", Quoted: true}, `"ab c"`},
	}

	for _, tc := range tests {
		if got := Render(tc.tok); got != tc.want {
			t.Errorf("%s: Render = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEqual(t *testing.T) {
	lit := token.Token{Text: "NOT", Quoted: true, Literal: true}
	if Equal(lit, token.Token{Text: "NOT"}) {
		t.Error("literal NOT must differ from the operator")
	}
	if !Equal(token.Token{Text: "x", Quoted: true, Literal: true}, token.Token{Text: "x"}) {
		t.Error("quoted and bare plain words must match")
	}
}
