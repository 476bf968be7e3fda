package corpus

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/config"
)

// Page holds the raw text of one page of the reference document.
type Page struct {
	Number int // 1-based
	Text   string
}

// ReadPages reads a plain-text export of the reference document where
// pages are separated by form feeds (the pdftotext convention).
func ReadPages(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: read %s", path)
	}

	raw := strings.Split(string(data), "\f")
	pages := make([]Page, 0, len(raw))
	for i, text := range raw {
		pages = append(pages, Page{Number: i + 1, Text: text})
	}
	return pages, nil
}

// Load reads and chunks the configured reference document. A missing or
// unreadable document is non-fatal: retrieval degrades to an empty corpus.
func Load(cfg config.CorpusConfig) []Chunk {
	pages, err := ReadPages(cfg.Path)
	if err != nil {
		zap.L().Warn("corpus: reference document unavailable, continuing with empty corpus",
			zap.String("path", cfg.Path),
			zap.Error(err),
		)
		return nil
	}

	chunker := NewChunker(cfg.ChunkSize, cfg.Overlap, cfg.DocumentName)
	return chunker.Chunk(pages)
}
