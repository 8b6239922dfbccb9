package timemod

import (
	"context"
	"time"

	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
)

// Resolver evaluates time bounds in process against a clock.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

// Resolve evaluates non-empty bounds relative to the same instant.
func (r *Resolver) Resolve(_ context.Context, earliest, latest string) (parsed.TimeRange, error) {
	now := r.Now()
	tr := parsed.TimeRange{Earliest: earliest, Latest: latest}
	if earliest != "" {
		t, err := Parse(earliest, now)
		if err != nil {
			return parsed.TimeRange{}, err
		}
		tr.EarliestTime = &t
	}
	if latest != "" {
		t, err := Parse(latest, now)
		if err != nil {
			return parsed.TimeRange{}, err
		}
		tr.LatestTime = &t
	}
	return tr, nil
}
