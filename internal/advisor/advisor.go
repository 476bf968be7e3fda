// Package advisor implements the adaptive compliance interview: the
// prohibited-practice gate, the question/assessment loop and the final
// report synthesis, grounded in retrieval over the embedded AI Act corpus.
package advisor

import (
	"context"

	"github.com/complyeu/aiact-cli/internal/config"
	"github.com/complyeu/aiact-cli/internal/corpus"
)

// Completer is the text-completion collaborator. Its output is untrusted
// text and is always parsed defensively.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int64) (string, error)
}

// Retriever answers top-k similarity queries over the corpus and scores
// pairwise text similarity for question de-duplication.
type Retriever interface {
	Retrieve(ctx context.Context, query string, chunks []corpus.Chunk, k int) []corpus.Chunk
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Advisor holds the shared, read-only collaborators for all consultations:
// the embedded corpus, the retriever, the completion client and the audit
// question bank. Per-consultation state lives in Consultation.
type Advisor struct {
	completer Completer
	retriever Retriever
	chunks    []corpus.Chunk
	questions *QuestionBank
	cfg       config.InterviewConfig
}

// New creates an Advisor over an embedded corpus.
func New(completer Completer, retriever Retriever, chunks []corpus.Chunk, questions *QuestionBank, cfg config.InterviewConfig) *Advisor {
	return &Advisor{
		completer: completer,
		retriever: retriever,
		chunks:    chunks,
		questions: questions,
		cfg:       cfg,
	}
}

// CorpusSize reports how many chunks back the retriever.
func (a *Advisor) CorpusSize() int {
	return len(a.chunks)
}

// Config exposes the interview bounds for shells that display progress.
func (a *Advisor) Config() config.InterviewConfig {
	return a.cfg
}
