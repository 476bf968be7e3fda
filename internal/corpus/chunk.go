// Package corpus loads the reference legal text and splits it into
// retrievable chunks tagged with extracted article citations.
package corpus

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"sort"
)

// Chunk is a bounded unit of reference-corpus text with page/position
// metadata and extracted legal citations. Immutable once created, except
// for the embedding vector which is attached exactly once by the index.
type Chunk struct {
	Text      string
	Page      int
	Index     int
	Document  string
	Embedding []float32
	Hash      string
	Citations []string
}

// citationPatterns match legal-article references in chunk text.
// Sub-clause suffixes like "5(1)(d)" are captured as part of the reference.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)article\s+(\d+[a-z]*(?:\(\d+\))?(?:\([a-z]\))?)`),
	regexp.MustCompile(`(?i)art\.\s*(\d+[a-z]*)`),
}

// NewChunk builds a Chunk, computing its content hash and extracting
// citation references eagerly.
func NewChunk(text string, page, index int, document string) Chunk {
	sum := md5.Sum([]byte(text))
	return Chunk{
		Text:      text,
		Page:      page,
		Index:     index,
		Document:  document,
		Hash:      hex.EncodeToString(sum[:]),
		Citations: extractCitations(text),
	}
}

// extractCitations returns the distinct article references found in text,
// sorted for stable ordering.
func extractCitations(text string) []string {
	seen := make(map[string]struct{})
	for _, pat := range citationPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
