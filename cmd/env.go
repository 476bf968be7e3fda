package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/advisor"
	"github.com/complyeu/aiact-cli/internal/config"
	"github.com/complyeu/aiact-cli/internal/corpus"
	"github.com/complyeu/aiact-cli/internal/index"
	"github.com/complyeu/aiact-cli/internal/resilience"
	anthropicpkg "github.com/complyeu/aiact-cli/pkg/anthropic"
	"github.com/complyeu/aiact-cli/pkg/jina"
)

// advisorEnv holds the initialized clients, the embedded corpus and the
// advisor shared by the consult/serve commands.
type advisorEnv struct {
	Advisor   *advisor.Advisor
	Completer *advisor.ResilientCompleter
	cache     index.CacheStore
}

// Close releases resources held by the environment.
func (ae *advisorEnv) Close() {
	if ae.cache != nil {
		_ = ae.cache.Close()
	}
}

// initAdvisor loads the corpus, warms the embedding index and wires the
// completion client. Callers should defer env.Close().
func initAdvisor(ctx context.Context) (*advisorEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("AIACT_ANTHROPIC_KEY is required")
	}

	chunks := corpus.Load(cfg.Corpus)

	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithModel(cfg.Jina.Model),
		jina.WithRateLimit(cfg.Jina.RateLimit),
	)

	// A broken cache backend degrades to re-embedding every start.
	cache, err := index.OpenCache(ctx, cfg.Cache)
	if err != nil {
		zap.L().Warn("embedding cache unavailable, embeddings will not persist", zap.Error(err))
		cache = nil
	}

	ix := index.New(jinaClient, cache)
	if len(chunks) > 0 {
		if err := ix.EmbedCorpus(ctx, chunks); err != nil {
			zap.L().Warn("corpus embedding failed, retrieval degrades to document order", zap.Error(err))
		}
	}

	questions, err := advisor.LoadQuestionBank()
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, eris.Wrap(err, "load question bank")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	completer := advisor.NewResilientCompleter(
		advisor.NewAnthropicCompleter(anthropicClient, cfg.Anthropic.Model),
		resilience.FromRetryConfig(
			cfg.Resilience.RetryMaxAttempts,
			cfg.Resilience.RetryInitialBackoffMs,
			cfg.Resilience.RetryMaxBackoffMs,
			cfg.Resilience.RetryMultiplier,
			cfg.Resilience.RetryJitterFraction,
		),
		resilience.FromCircuitConfig(
			cfg.Resilience.CircuitFailureThreshold,
			cfg.Resilience.CircuitResetTimeoutSecs,
		),
	)

	adv := advisor.New(completer, ix, chunks, questions, cfg.Interview)

	zap.L().Info("advisor initialized",
		zap.Int("corpus_chunks", adv.CorpusSize()),
		zap.String("model", cfg.Anthropic.Model),
	)

	return &advisorEnv{Advisor: adv, Completer: completer, cache: cache}, nil
}

// completionTimeout bounds a single interview turn.
func completionTimeout(cfg config.AnthropicConfig) time.Duration {
	return time.Duration(cfg.TimeoutSecs) * time.Second
}
