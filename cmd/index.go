package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/corpus"
	"github.com/complyeu/aiact-cli/internal/index"
	"github.com/complyeu/aiact-cli/pkg/jina"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk the reference document and warm the embedding cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runIndex(ctx)
	},
}

func runIndex(ctx context.Context) error {
	chunks := corpus.Load(cfg.Corpus)
	if len(chunks) == 0 {
		return eris.Errorf("no chunks produced from %s", cfg.Corpus.Path)
	}

	pageCount := 0
	for _, ch := range chunks {
		if ch.Page > pageCount {
			pageCount = ch.Page
		}
	}
	zap.L().Info("corpus chunked",
		zap.Int("chunks", len(chunks)),
		zap.Int("pages", pageCount),
	)

	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithModel(cfg.Jina.Model),
		jina.WithRateLimit(cfg.Jina.RateLimit),
	)

	cache, err := index.OpenCache(ctx, cfg.Cache)
	if err != nil {
		return eris.Wrap(err, "open embedding cache")
	}
	defer cache.Close()

	ix := index.New(jinaClient, cache)
	if err := ix.EmbedCorpus(ctx, chunks); err != nil {
		return eris.Wrap(err, "embed corpus")
	}

	fmt.Printf("Indexed %d chunks across %d pages (cache: %s)\n", len(chunks), pageCount, cfg.Cache.Driver)
	return nil
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
