package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longParagraph(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = "regulation"
	}
	return strings.Join(parts, " ")
}

func TestChunkOnePerParagraph(t *testing.T) {
	t.Parallel()

	c := NewChunker(800, 150, "EU_AI_Act")
	pages := []Page{
		{Number: 1, Text: "This regulation lays down harmonised rules on artificial intelligence systems.\n\nProviders shall ensure that high-risk systems comply with the requirements set out below."},
	}

	chunks := c.Chunk(pages)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "[Page 1]"))
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "EU_AI_Act", chunks[0].Document)
}

func TestChunkDropsShortParagraphs(t *testing.T) {
	t.Parallel()

	c := NewChunker(800, 150, "EU_AI_Act")
	pages := []Page{
		{Number: 1, Text: "Title II\n\nThis is a qualifying paragraph that comfortably exceeds the fifty character noise filter."},
	}

	chunks := c.Chunk(pages)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "qualifying paragraph")
}

func TestChunkRewindowsLongParagraphs(t *testing.T) {
	t.Parallel()

	c := NewChunker(800, 150, "EU_AI_Act")
	pages := []Page{{Number: 2, Text: longParagraph(2000)}}

	chunks := c.Chunk(pages)

	// ceil((2000 - 150) / 650) = 3 windows.
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, 2, ch.Page)
		assert.LessOrEqual(t, len(strings.Fields(ch.Text)), 800+2) // +2 for the page tag on the first window
	}
}

func TestChunkWindowOverlap(t *testing.T) {
	t.Parallel()

	// Distinct numbered words so overlap is observable.
	words := make([]string, 1000)
	for i := range words {
		words[i] = "clause" + strings.Repeat("x", 5) + string(rune('a'+i%26))
	}
	c := NewChunker(100, 20, "EU_AI_Act")
	chunks := c.Chunk([]Page{{Number: 1, Text: strings.Join(words, " ")}})

	require.Greater(t, len(chunks), 1)
	first := strings.Fields(chunks[0].Text)
	second := strings.Fields(chunks[1].Text)
	// Last 20 words of window n reappear at the start of window n+1.
	assert.Equal(t, first[len(first)-20:], second[:20])
}

func TestChunkSkipsEmptyPages(t *testing.T) {
	t.Parallel()

	c := NewChunker(800, 150, "EU_AI_Act")
	pages := []Page{
		{Number: 1, Text: "   \n  "},
		{Number: 2, Text: "A perfectly normal paragraph of legal text that is long enough to survive the filter."},
	}

	chunks := c.Chunk(pages)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
}

func TestChunkIndicesStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	c := NewChunker(100, 20, "EU_AI_Act")
	pages := []Page{
		{Number: 1, Text: longParagraph(500)},
		{Number: 2, Text: longParagraph(300)},
	}

	chunks := c.Chunk(pages)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}
