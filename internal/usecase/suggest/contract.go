package suggest

import (
	"context"

	"github.com/kailas-cloud/searchlang/internal/domain/search/command"
)

// History reads recorded command usage.
type History interface {
	TopCommands(ctx context.Context, limit int) ([]command.Count, error)
	NextCommands(ctx context.Context, prev string, limit int) ([]command.Count, error)
}
