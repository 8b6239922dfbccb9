package searchlang

import (
	"context"

	"github.com/kailas-cloud/searchlang/internal/domain"
	"github.com/kailas-cloud/searchlang/internal/domain/search/clause"
	"github.com/kailas-cloud/searchlang/internal/domain/search/intention"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/parsed"
	"github.com/kailas-cloud/searchlang/internal/domain/search/token"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
)

type (
	// Clause is one pipe-separated stage of a search.
	Clause = clause.Clause
	// Token is a clause argument with its quoting recorded.
	Token = token.Token
	// Intention is a named structured edit.
	Intention = intention.Intention
	// Fields is an ordered list of key=value pairs.
	Fields = kv.Fields
	// TimeRange holds the earliest/latest bounds of a search.
	TimeRange = parsed.TimeRange
	// RawView is the parse result without field extraction.
	RawView = parsed.RawView
	// View is the parse result after intentions were applied.
	View = parsed.View
	// ParseResult holds exactly one of RawView or View.
	ParseResult = parseruc.Result
	// Decomposition is a search plus the intentions that rebuild its base.
	Decomposition = parseruc.Decomposition
)

// TimeResolver resolves earliest/latest modifiers to absolute times.
type TimeResolver interface {
	Resolve(ctx context.Context, earliest, latest string) (TimeRange, error)
}

// Intention names.
const (
	StringReplace = intention.StringReplace
	AddTerm       = intention.AddTerm
	NegateTerm    = intention.NegateTerm
	ToggleTerm    = intention.ToggleTerm
	RemoveTerm    = intention.RemoveTerm
	ReplaceToken  = intention.ReplaceToken
	SetField      = intention.SetField
	AddCommand    = intention.AddCommand
	RemoveCommand = intention.RemoveCommand

	// FlagAppendClause directs term edits to a trailing search clause.
	FlagAppendClause = intention.FlagAppendClause
)

// Errors returned by the client, matchable with errors.Is.
var (
	ErrInvalidQuery        = domain.ErrInvalidQuery
	ErrInvalidIntention    = domain.ErrInvalidIntention
	ErrUnknownIntention    = domain.ErrUnknownIntention
	ErrUnsupportedArgument = domain.ErrUnsupportedArgument
	ErrInvalidTimeModifier = domain.ErrInvalidTimeModifier
)
