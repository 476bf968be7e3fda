package corpus

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	// minParagraphLen filters out headings, page furniture and other noise.
	minParagraphLen = 50
	// minFragmentLen discards re-windowed fragments too short to be informative.
	minFragmentLen = 100
)

// Chunker splits page-level text into Chunks. Paragraphs under
// minParagraphLen are dropped; paragraphs over ChunkSize words are
// re-windowed into overlapping word spans.
type Chunker struct {
	ChunkSize int // window size in words
	Overlap   int // overlapping words between consecutive windows
	Document  string
}

// NewChunker returns a Chunker with the given word budget and overlap.
func NewChunker(chunkSize, overlap int, document string) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 150
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap, Document: document}
}

// Chunk converts pages into a Chunk sequence with strictly increasing
// indices. Pages with no extractable text are skipped with a warning;
// the resulting corpus may be partial.
func (c *Chunker) Chunk(pages []Page) []Chunk {
	var chunks []Chunk

	for _, page := range pages {
		text := strings.TrimSpace(norm.NFC.String(page.Text))
		if text == "" {
			zap.L().Warn("corpus: page has no extractable text",
				zap.Int("page", page.Number),
			)
			continue
		}

		text = fmt.Sprintf("[Page %d] %s", page.Number, text)

		for _, para := range splitParagraphs(text) {
			if wordCount(para) <= c.ChunkSize {
				chunks = append(chunks, NewChunk(para, page.Number, len(chunks), c.Document))
				continue
			}

			words := strings.Fields(para)
			stride := c.ChunkSize - c.Overlap
			for i := 0; i < len(words); i += stride {
				end := min(i+c.ChunkSize, len(words))
				fragment := strings.Join(words[i:end], " ")
				if len(fragment) > minFragmentLen {
					chunks = append(chunks, NewChunk(fragment, page.Number, len(chunks), c.Document))
				}
				if end == len(words) {
					break
				}
			}
		}
	}

	zap.L().Info("corpus: chunked document",
		zap.String("document", c.Document),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)

	return chunks
}

// splitParagraphs splits text on blank-line boundaries and filters out
// fragments under minParagraphLen.
func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) > minParagraphLen {
			paras = append(paras, p)
		}
	}
	return paras
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
