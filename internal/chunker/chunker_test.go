package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		expectErr bool
	}{
		{"defaults", DefaultChunkSize, DefaultOverlap, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 1000, -1, true},
		{"overlap equals size", 500, 500, true},
		{"stride below tolerance", 500, 400, true},
		{"zero overlap ok", 1000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)
	assert.Nil(t, c.Split(""))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)

	text := "Customer: Acme Inc (acme@x.com). Vendor: Globex LLC. Total: $10,000. Payment Terms: Net 30."
	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, len(text), chunks[0].CharEnd)
	assert.Zero(t, chunks[0].OverlapWithPrev)
}

// reconstruct joins chunk texts, skipping each chunk's overlap with its
// predecessor. It must rebuild the original input exactly.
func reconstruct(chunks []Chunk) string {
	var b strings.Builder
	for _, ch := range chunks {
		b.WriteString(ch.Text[ch.OverlapWithPrev:])
	}
	return b.String()
}

func TestSplitCoversInputExactly(t *testing.T) {
	c, err := New(1500, 300)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("This agreement covers managed hosting services for the customer. ")
		if i%17 == 0 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, reconstruct(chunks))

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, ch.Text, text[ch.CharStart:ch.CharEnd])
		if i > 0 {
			assert.Equal(t, chunks[i-1].CharEnd-ch.CharStart, ch.OverlapWithPrev)
			assert.GreaterOrEqual(t, ch.OverlapWithPrev, 0)
		}
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].CharEnd)
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	c, err := New(1500, 300)
	require.NoError(t, err)

	// Sentences short enough that a boundary always falls inside the
	// tolerance window.
	text := strings.Repeat("The vendor shall maintain uptime of the platform. ", 200)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks[:len(chunks)-1] {
		last := ch.Text[len(ch.Text)-1]
		assert.Contains(t, ".!?", string(last), "chunk %d should end on a sentence boundary", ch.Index)
	}
}

func TestSplitHardCutWithoutBoundary(t *testing.T) {
	c, err := New(1500, 300)
	require.NoError(t, err)

	text := strings.Repeat("x", 4000)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, reconstruct(chunks))
	assert.Len(t, chunks[0].Text, 1500)
}

func TestSplitDeterministic(t *testing.T) {
	c, err := New(1500, 300)
	require.NoError(t, err)

	text := strings.Repeat("Payment is due within thirty days of the invoice date. ", 300)
	a := c.Split(text)
	b := c.Split(text)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}
