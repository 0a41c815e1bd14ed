package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/config"
	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/document"
	"github.com/parker-estes/bankdocs/internal/embedding"
	"github.com/parker-estes/bankdocs/internal/extract"
	"github.com/parker-estes/bankdocs/internal/ingest"
	"github.com/parker-estes/bankdocs/internal/llm"
	"github.com/parker-estes/bankdocs/internal/service"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// components is the wired application graph for commands that need the
// full pipeline (serve, ingest, sync, ask, search, mcp).
type components struct {
	store    storage.Store
	pipeline *ingest.Pipeline
	svc      *service.Service
}

func (c *components) Close() error {
	return c.store.Close()
}

// buildComponents connects the storage backend, OpenAI clients, and
// service facade from configuration. The caller owns cleanup via Close.
func buildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*components, error) {
	embeddingClient, err := embedding.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size

	store, err := openStore(cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	if qs, ok := store.(*storage.QdrantStore); ok {
		if err := qs.EnsureCollection(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure collection %q: %w", cfg.Collection, err)
		}
	}

	llmClient, err := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.Temperature)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	chunker, err := chunk.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		store.Close()
		return nil, err
	}

	pipeline := ingest.NewPipeline(document.NewLoader(logger), chunker, store, logger)
	history := conversation.NewHistory(cfg.HistoryLimit)
	answerer := answer.New(store, embedder, llmClient, history, cfg.TopK, logger)
	extractor := extract.New(store, llmClient, cfg.TopK, logger)

	return &components{
		store:    store,
		pipeline: pipeline,
		svc:      service.New(pipeline, answerer, extractor, store, logger),
	}, nil
}

// openStore creates the configured storage backend. The embedder may be
// nil for commands that never embed (stats, delete, reset).
func openStore(cfg config.Config, embedder storage.Embedder) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendQdrant:
		return storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, embedder)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(cfg.SQLitePath, embedder)
	case config.BackendMemory:
		return storage.NewMemoryStore(embedder), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
