// Package storage owns chunk persistence: embedding vectors paired with
// chunk text and metadata, retrievable by similarity search and removable
// by source document.
package storage

import (
	"context"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// Embedder is the embedding capability the index depends on. Implementations
// must return one vector per input text, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Filter restricts a search to chunks matching every set field.
type Filter struct {
	SourcePath  string
	ContentType string
}

// Matches reports whether the chunk metadata satisfies the filter.
func (f *Filter) Matches(m chunk.Metadata) bool {
	if f == nil {
		return true
	}
	if f.SourcePath != "" && m.SourcePath != f.SourcePath {
		return false
	}
	if f.ContentType != "" && m.ContentType != f.ContentType {
		return false
	}
	return true
}

// Store is the vector index contract shared by all backends.
//
// Insert is cumulative: re-inserting the same chunk creates a duplicate
// entry, and deduplication is the caller's responsibility via
// DeleteBySource before re-insert. An embedding failure aborts the whole
// batch; no partial insert is persisted. Searching an empty index returns
// an empty result, never an error.
type Store interface {
	// Insert embeds every chunk's content and persists the (vector, chunk)
	// pairs atomically with respect to concurrent calls.
	Insert(ctx context.Context, chunks []chunk.Chunk) error

	// Search returns up to k chunks ordered by descending similarity to the
	// query text. Ties break deterministically by insertion order where the
	// backend can guarantee it.
	Search(ctx context.Context, query string, k int, filter *Filter) ([]chunk.Chunk, error)

	// SearchWithScores is Search with each chunk's similarity score, higher
	// meaning more similar.
	SearchWithScores(ctx context.Context, query string, k int, filter *Filter) ([]ScoredChunk, error)

	// SearchVector searches with an already-computed embedding vector.
	SearchVector(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)

	// DeleteBySource removes every chunk whose source_path matches and
	// returns the number of entries removed.
	DeleteBySource(ctx context.Context, sourcePath string) (int, error)

	// ListSources summarizes the indexed documents grouped by source path.
	ListSources(ctx context.Context) ([]SourceInfo, error)

	// Reset drops every entry. Calling it on an empty index is a no-op.
	Reset(ctx context.Context) error

	// Stats reports the entry count and where the index lives.
	Stats(ctx context.Context) (Stats, error)

	// Health checks that the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases backend connections.
	Close() error
}
