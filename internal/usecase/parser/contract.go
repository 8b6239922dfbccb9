package parser

import (
	"context"

	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
)

// TimeResolver turns earliest/latest modifiers into absolute bounds.
// Implementations may call the search backend.
type TimeResolver interface {
	Resolve(ctx context.Context, earliest, latest string) (parsed.TimeRange, error)
}

// UsageRecorder stores the command sequence of each parsed search.
type UsageRecorder interface {
	Record(ctx context.Context, commands []string) error
}
