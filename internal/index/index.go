// Package index embeds corpus chunks and retrieves the ones most relevant
// to a query by cosine similarity. Embeddings are cached between runs keyed
// on the chunk content hashes.
package index

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/complyeu/aiact-cli/internal/corpus"
	"github.com/complyeu/aiact-cli/pkg/jina"
)

const (
	embedBatchSize = 32
	embedWorkers   = 4
)

// Index holds the embedding client and the persistent cache.
type Index struct {
	embedder jina.Client
	cache    CacheStore
}

// New creates an Index. The cache may be nil, in which case every corpus
// build re-embeds from scratch.
func New(embedder jina.Client, cache CacheStore) *Index {
	return &Index{embedder: embedder, cache: cache}
}

// EmbedCorpus attaches an embedding to every chunk, in place. A cache entry
// whose hash list matches the corpus exactly is used as-is; otherwise the
// corpus is re-embedded in concurrent batches and the cache rewritten.
func (ix *Index) EmbedCorpus(ctx context.Context, chunks []corpus.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}

	if ix.cache != nil {
		entry, err := ix.cache.Load(ctx)
		if err != nil {
			zap.L().Warn("embedding cache load failed", zap.Error(err))
		}
		if entry.Matches(hashes) {
			for i := range chunks {
				chunks[i].Embedding = entry.Vectors[i]
			}
			zap.L().Info("embeddings loaded from cache", zap.Int("chunks", len(chunks)))
			return nil
		}
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for start := 0; start < len(chunks); start += embedBatchSize {
		start := start
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}
			vecs, err := ix.embedder.Embed(gctx, texts)
			if err != nil {
				return eris.Wrapf(err, "index: embed chunks %d-%d", start, end-1)
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	zap.L().Info("corpus embedded", zap.Int("chunks", len(chunks)))

	if ix.cache != nil {
		if err := ix.cache.Save(ctx, &Entry{Hashes: hashes, Vectors: vectors}); err != nil {
			zap.L().Warn("embedding cache save failed", zap.Error(err))
		}
	}
	return nil
}

// Retrieve returns the k chunks most similar to the query, deduplicated by
// content hash. When the query cannot be embedded, or no chunk carries an
// embedding, it falls back to the first k chunks in corpus order so the
// caller always has context to work with.
func (ix *Index) Retrieve(ctx context.Context, query string, chunks []corpus.Chunk, k int) []corpus.Chunk {
	if k <= 0 || len(chunks) == 0 {
		return nil
	}
	if k > len(chunks) {
		k = len(chunks)
	}

	qvecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil || len(qvecs) == 0 {
		zap.L().Warn("query embedding failed, using corpus order", zap.Error(err))
		return chunks[:k]
	}
	qv := qvecs[0]

	type scored struct {
		chunk corpus.Chunk
		score float64
	}
	cands := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		cands = append(cands, scored{chunk: c, score: Cosine(qv, c.Embedding)})
	}
	if len(cands) == 0 {
		zap.L().Warn("no embedded chunks available, using corpus order")
		return chunks[:k]
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	seen := make(map[string]struct{}, k)
	out := make([]corpus.Chunk, 0, k)
	for _, s := range cands {
		if _, dup := seen[s.chunk.Hash]; dup {
			continue
		}
		seen[s.chunk.Hash] = struct{}{}
		out = append(out, s.chunk)
		if len(out) == k {
			break
		}
	}
	return out
}

// Similarity embeds both texts and returns their cosine similarity,
// clamped to [0, 1].
func (ix *Index) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := ix.embedder.Embed(ctx, []string{a, b})
	if err != nil {
		return 0, eris.Wrap(err, "index: similarity")
	}
	if len(vecs) != 2 {
		return 0, eris.Errorf("index: similarity: got %d vectors, want 2", len(vecs))
	}
	s := Cosine(vecs[0], vecs[1])
	if s < 0 {
		s = 0
	}
	return s, nil
}

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
