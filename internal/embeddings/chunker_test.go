package embeddings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, SplitText("", 500, 10))
	assert.Nil(t, SplitText("   \n\t  ", 500, 10))
}

func TestSplitText_SingleChunk(t *testing.T) {
	chunks := SplitText("short text under the limit", 500, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text under the limit", chunks[0])
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 400)
	chunks := SplitText(text, 100, 0)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		// A single word may overflow the budget; these never do.
		assert.LessOrEqual(t, len(chunk), 105)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitText_OverlapCarriesWords(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 120, 20)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		overlap := len(prev) * 20 / 100
		require.GreaterOrEqual(t, len(cur), overlap)
		// The tail of each chunk reappears at the head of the next.
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap])
	}
}

func TestSplitText_AllWordsCovered(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := SplitText(text, 20, 0)
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}
