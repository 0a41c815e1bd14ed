// Package ingest drives documents from disk into the search index:
// load, chunk, then replace whatever the index held for that source.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/document"
)

// Result summarizes one ingestion run.
type Result struct {
	DocumentsIndexed int
	ChunksIndexed    int
	Failed           []FailedDoc
	Duration         time.Duration
}

// FailedDoc records a document that could not be ingested.
type FailedDoc struct {
	Path   string
	Reason string
}

// Loader resolves paths and reads documents.
type Loader interface {
	ListFiles(root string) ([]string, error)
	Load(path string) ([]document.RawDocument, error)
}

// Chunker splits raw text into indexable chunks.
type Chunker interface {
	ChunkDocument(text string, base chunk.Metadata) []chunk.Chunk
}

// Store is the slice of the storage API the pipeline needs.
type Store interface {
	Insert(ctx context.Context, chunks []chunk.Chunk) error
	DeleteBySource(ctx context.Context, sourcePath string) (int, error)
}

// Pipeline orchestrates loading, chunking, and indexing.
type Pipeline struct {
	loader  Loader
	chunker Chunker
	store   Store
	logger  *slog.Logger
}

// NewPipeline creates an ingestion pipeline from its collaborators.
func NewPipeline(loader Loader, chunker Chunker, store Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:  loader,
		chunker: chunker,
		store:   store,
		logger:  logger,
	}
}

// Run ingests every document reachable from the given paths. Directories
// expand recursively. Failures are collected per document; one bad file
// never aborts the batch.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	var files []string
	for _, path := range paths {
		expanded, err := p.loader.ListFiles(path)
		if err != nil {
			p.logger.Warn("cannot resolve path", "path", path, "error", err)
			result.Failed = append(result.Failed, FailedDoc{Path: path, Reason: err.Error()})
			continue
		}
		files = append(files, expanded...)
	}
	p.logger.Info("starting ingestion", "files", len(files))

	for _, file := range files {
		n, err := p.ingestFile(ctx, file)
		if err != nil {
			p.logger.Warn("failed to ingest document", "path", file, "error", err)
			result.Failed = append(result.Failed, FailedDoc{Path: file, Reason: err.Error()})
			continue
		}
		result.DocumentsIndexed++
		result.ChunksIndexed += n
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"documents", result.DocumentsIndexed,
		"failed", len(result.Failed),
		"chunks", result.ChunksIndexed,
		"duration", result.Duration,
	)
	return result, nil
}

// ingestFile loads one file, chunks it, and swaps it into the index.
// Returns the number of chunks written.
func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	docs, err := p.loader.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}

	// Multi-part documents (PDF pages) share one source path, so chunk
	// indexes continue across parts and table ids stay unique.
	var chunks []chunk.Chunk
	for _, doc := range docs {
		for _, c := range p.chunker.ChunkDocument(doc.Text, doc.Meta) {
			c.Metadata.ChunkIndex = len(chunks)
			if c.Metadata.TableID != "" {
				c.Metadata.TableID = fmt.Sprintf("table_%d", c.Metadata.ChunkIndex)
			}
			chunks = append(chunks, c)
		}
	}

	// Replace any earlier version of this document before inserting.
	if _, err := p.store.DeleteBySource(ctx, path); err != nil {
		return 0, fmt.Errorf("delete previous chunks: %w", err)
	}

	if len(chunks) == 0 {
		p.logger.Info("document produced no chunks", "path", path)
		return 0, nil
	}
	if err := p.store.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return len(chunks), nil
}

// IngestText indexes text that did not come from the local filesystem,
// such as a document fetched from a remote repository. The base
// metadata must carry the source path used for replacement.
func (p *Pipeline) IngestText(ctx context.Context, text string, base chunk.Metadata) (int, error) {
	chunks := p.chunker.ChunkDocument(text, base)

	if _, err := p.store.DeleteBySource(ctx, base.SourcePath); err != nil {
		return 0, fmt.Errorf("delete previous chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := p.store.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return len(chunks), nil
}
