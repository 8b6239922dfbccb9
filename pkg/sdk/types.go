package sdk

import (
	"github.com/kailas-cloud/searchlang"
)

// Field is one extracted key=value pair.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Args holds the fields and free-text terms of a clause.
type Args struct {
	Fields []Field `json:"fields"`
	Terms  string  `json:"terms"`
}

// Clause is one pipeline stage of a parse response. Args is nil when the
// server returned the raw view (no structural intentions).
type Clause struct {
	Command string `json:"command"`
	RawArgs string `json:"rawargs"`
	Args    *Args  `json:"args,omitempty"`
}

// ParseResult is the server's answer to a parse request.
type ParseResult struct {
	Search     string                `json:"search"`
	Clauses    []Clause              `json:"clauses"`
	TimeRange  *searchlang.TimeRange `json:"timerange,omitempty"`
	Intentions int                   `json:"intentions"`
}

// Raw reports whether the result is the raw view.
func (r ParseResult) Raw() bool {
	for _, c := range r.Clauses {
		if c.Args != nil {
			return false
		}
	}
	return true
}

// Decomposition is the server's answer to a decompose request.
type Decomposition = searchlang.Decomposition

// Correction proposes a replacement for an unknown command.
type Correction struct {
	Clause     int     `json:"clause"`
	Original   string  `json:"original"`
	Suggested  string  `json:"suggested"`
	Similarity float64 `json:"similarity"`
	Count      int64   `json:"count"`
}

// CommandCount is a command with its recorded frequency.
type CommandCount struct {
	Command string `json:"command"`
	Count   int64  `json:"count"`
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
