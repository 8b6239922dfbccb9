package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals search text that cannot be tokenized or parsed.
	ErrInvalidQuery = errors.New("invalid search")
	// ErrInvalidIntention signals a malformed intention list or argument.
	ErrInvalidIntention = errors.New("invalid intention")
	// ErrUnknownIntention signals an intention name with no registered handler.
	ErrUnknownIntention = errors.New("unknown intention")
	// ErrUnsupportedArgument signals an intention argument the handler cannot apply.
	ErrUnsupportedArgument = errors.New("unsupported intention argument")
	// ErrInvalidTimeModifier signals an unparseable earliest/latest expression.
	ErrInvalidTimeModifier = errors.New("invalid time modifier")
	// ErrBackendUnavailable signals a failed round-trip to the search backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrUnauthorized signals a missing or unknown session key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// PositionError locates a tokenizer failure inside the search text.
type PositionError struct {
	Pos    int
	Reason string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d", ErrInvalidQuery.Error(), e.Reason, e.Pos)
}

func (e *PositionError) Unwrap() error { return ErrInvalidQuery }

// NewPositionError creates a tokenizer error at the given byte offset of the
// search text.
func NewPositionError(pos int, reason string) error {
	return &PositionError{Pos: pos, Reason: reason}
}
