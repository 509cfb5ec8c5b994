package llm

import (
	"context"
	"errors"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
)

// ErrUnavailable marks a transport-level failure: the backend could not be
// reached, timed out, or kept returning non-2xx after retries. The caller
// routes the chunk to the fallback extractor.
var ErrUnavailable = errors.New("llm backend unavailable")

// ErrBadPayload marks a response that arrived but could not be turned into a
// schema-valid fragment even after sanitizing.
var ErrBadPayload = errors.New("llm payload invalid")

// ExtractRequest carries one chunk to the AI backend.
type ExtractRequest struct {
	ChunkText  string
	ChunkIndex int

	// SectionHints bias which fields the prompt emphasizes. They never
	// restrict the schema; every chunk gets full extraction.
	SectionHints map[constants.SectionTag]float64

	// MaxChars truncates oversized chunks before sending. Zero means the
	// client default.
	MaxChars int
}

// ChunkExtractor is the interface the pipeline depends on. Implementations
// return a fragment with Source=AI plus the raw model JSON for audit, or a
// typed failure (ErrUnavailable, ErrBadPayload) — never fabricated data.
type ChunkExtractor interface {
	ExtractChunk(ctx context.Context, req ExtractRequest) (entity.Fragment, []byte, error)
}
