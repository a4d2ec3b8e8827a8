package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"voicerag/app/agent"
	"voicerag/config"
	"voicerag/loader"
	"voicerag/model"
	"voicerag/store"
	"voicerag/telemetry"
)

// Deps is everything the HTTP surface and the CLI commands share.
type Deps struct {
	Agent     *agent.Agent
	Loader    *loader.Loader
	Providers *model.Providers
	Store     store.VectorStorer

	closers []func()
}

func NewDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return nil, err
	}

	providers, err := model.NewProviders(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init model providers: %w", err)
	}

	d := &Deps{Providers: providers}
	switch cfg.VectorStore {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresConnString(), cfg.PGTable, cfg.EmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("init vector table: %w", err)
		}
		d.Store = pg
		d.closers = append(d.closers, pg.Close)
	default:
		logger.Warn("using in-memory vector store, records are lost on exit")
		d.Store = store.NewMemoryStore()
	}

	queryEmbedder := model.WrapLRUCache(providers.Embedder, cfg.EmbedCacheSize, cfg.EmbedCacheTTL)
	retriever := agent.NewRetriever(queryEmbedder, d.Store, cfg.TopK, logger.Named("retriever"), metrics)
	d.Agent = agent.New(retriever, providers.Generator, logger.Named("agent"), metrics)

	extractor := loader.NewExtractor(loader.PDFCrop{Top: cfg.PDFCropTop, Bottom: cfg.PDFCropBot})
	d.Loader = loader.New(extractor, providers.Embedder, d.Store, cfg.ChunkConfig(), logger.Named("loader"), metrics)

	logger.Info("dependencies ready",
		zap.String("vector_store", cfg.VectorStore),
		zap.String("embedding_provider", cfg.EmbeddingProvider),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.Bool("audio", providers.Transcriber != nil))
	return d, nil
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
