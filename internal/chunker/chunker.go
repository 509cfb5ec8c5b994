package chunker

import (
	"fmt"

	"github.com/contractintel/contract-intel/constants"
)

// Defaults are sized for the extraction backend's context window.
const (
	DefaultChunkSize = 8000
	DefaultOverlap   = 1000

	// boundaryTolerance is how far back from the hard cut we search for a
	// paragraph or sentence boundary before giving up and cutting mid-text.
	boundaryTolerance = 200
)

// Chunk is one bounded text window over the document. Chunks are immutable
// once created; SectionHints is populated by the classifier before the chunk
// is handed to extraction.
type Chunk struct {
	Index           int
	Text            string
	CharStart       int
	CharEnd         int
	OverlapWithPrev int
	SectionHints    map[constants.SectionTag]float64
}

// Chunker splits document text into overlapping windows.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

// New validates the configuration and returns a Chunker.
// ChunkSize must exceed Overlap, and the stride (ChunkSize - Overlap) must
// exceed the boundary tolerance so every iteration makes progress.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must be non-negative, got %d", overlap)
	}
	if chunkSize <= overlap {
		return nil, fmt.Errorf("chunker: chunk size %d must exceed overlap %d", chunkSize, overlap)
	}
	if chunkSize-overlap <= boundaryTolerance {
		return nil, fmt.Errorf("chunker: stride %d must exceed boundary tolerance %d", chunkSize-overlap, boundaryTolerance)
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap}, nil
}

// Split cuts text into ordered, overlapping chunks covering the whole input.
// Cuts prefer a paragraph break, then a sentence ending, searched backward
// within the tolerance window; otherwise a hard cut at ChunkSize. The final
// chunk may be shorter than ChunkSize. Same input and config always produce
// the same sequence.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.ChunkSize
		if end < len(text) {
			end = adjustToBoundary(text, start, end)
		} else {
			end = len(text)
		}

		overlap := 0
		if len(chunks) > 0 {
			overlap = chunks[len(chunks)-1].CharEnd - start
		}
		chunks = append(chunks, Chunk{
			Index:           len(chunks),
			Text:            text[start:end],
			CharStart:       start,
			CharEnd:         end,
			OverlapWithPrev: overlap,
		})

		if end >= len(text) {
			break
		}
		start = end - c.Overlap
	}
	return chunks
}

// adjustToBoundary walks backward from the hard cut looking first for a
// paragraph break, then for a sentence ending. Returns the exclusive end
// index of the chunk.
func adjustToBoundary(text string, start, end int) int {
	floor := end - boundaryTolerance
	if floor < start+1 {
		floor = start + 1
	}

	for i := end; i >= floor; i-- {
		if i+1 < len(text) && text[i] == '\n' && text[i+1] == '\n' {
			return i + 1
		}
	}
	for i := end; i >= floor; i-- {
		switch text[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return end
}
