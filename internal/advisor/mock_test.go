package advisor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/complyeu/aiact-cli/internal/config"
	"github.com/complyeu/aiact-cli/internal/corpus"
)

// fakeCompleter implements Completer with a pluggable function.
type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	fn    func(systemPrompt, userPrompt string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, _ float64, _ int64) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(systemPrompt, userPrompt)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRetriever implements Retriever. Zero value retrieves nothing and
// scores every pair as dissimilar.
type fakeRetriever struct {
	retrieveFn func(query string, k int) []corpus.Chunk
	simFn      func(a, b string) (float64, error)
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ []corpus.Chunk, k int) []corpus.Chunk {
	if f.retrieveFn == nil {
		return nil
	}
	return f.retrieveFn(query, k)
}

func (f *fakeRetriever) Similarity(_ context.Context, a, b string) (float64, error) {
	if f.simFn == nil {
		return 0, nil
	}
	return f.simFn(a, b)
}

func testInterviewConfig() config.InterviewConfig {
	return config.InterviewConfig{
		MinQuestions:        3,
		MaxQuestions:        15,
		ConfidenceThreshold: 0.75,
		DuplicateThreshold:  0.75,
		QuestionRetrievalK:  5,
		ReportRetrievalK:    15,
	}
}

func newTestAdvisor(t *testing.T, completer Completer, retriever Retriever, cfg config.InterviewConfig) *Advisor {
	t.Helper()
	qb, err := LoadQuestionBank()
	require.NoError(t, err)
	return New(completer, retriever, nil, qb, cfg)
}
