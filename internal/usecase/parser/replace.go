package parser

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
)

// ApplyReplacements fills $token$ placeholders in q from stringreplace
// intentions, in list order and sorted token order within each intention.
// A query without placeholders is returned unchanged.
func ApplyReplacements(q string, list []intention.Intention) (string, error) {
	for _, in := range list {
		repl, err := intention.DecodeReplacements(in.Arg)
		if err != nil {
			return "", fmt.Errorf("decode replacements: %w", err)
		}
		for _, name := range intention.SortedKeys(repl) {
			r := repl[name]
			placeholder := "$" + name + "$"
			if !strings.Contains(q, placeholder) {
				continue
			}
			chosen := r.Chosen()
			if r.FillOnEmpty && chosen == "" {
				q = strings.ReplaceAll(q, placeholder, "")
				continue
			}
			q = strings.ReplaceAll(q, placeholder, r.Prefix+chosen+r.Suffix)
		}
	}
	return q, nil
}
