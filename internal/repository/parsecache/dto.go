package parsecache

import "github.com/kailas-cloud/searchlang/internal/domain/search/parsed"

// resultDTO is the stored form of a parse result.
type resultDTO struct {
	Raw  *parsed.RawView `json:"raw,omitempty"`
	View *parsed.View    `json:"view,omitempty"`
}
