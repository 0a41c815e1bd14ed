package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// memoryEntry is one stored (vector, chunk) pair. The sequence number
// provides the deterministic tie-break for equal scores.
type memoryEntry struct {
	seq    int
	vector []float32
	chunk  chunk.Chunk
}

// MemoryStore is a process-local index backend guarded by a mutex. It backs
// unit tests and zero-dependency development runs; contents vanish on
// process exit.
type MemoryStore struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []memoryEntry
	nextSeq  int
}

// NewMemoryStore creates an empty in-memory index using embedder for both
// inserts and query embedding.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// Insert embeds all chunks first, then appends them under the lock so the
// batch becomes visible atomically.
func (s *MemoryStore) Insert(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("insert: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		s.entries = append(s.entries, memoryEntry{
			seq:    s.nextSeq,
			vector: vectors[i],
			chunk:  c,
		})
		s.nextSeq++
	}
	return nil
}

// Search embeds the query and returns the k most similar chunks.
func (s *MemoryStore) Search(ctx context.Context, query string, k int, filter *Filter) ([]chunk.Chunk, error) {
	scored, err := s.SearchWithScores(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	chunks := make([]chunk.Chunk, len(scored))
	for i, sc := range scored {
		chunks[i] = sc.Chunk
	}
	return chunks, nil
}

// SearchWithScores embeds the query and ranks all matching entries by
// cosine similarity, ties broken by insertion order.
func (s *MemoryStore) SearchWithScores(ctx context.Context, query string, k int, filter *Filter) ([]ScoredChunk, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return s.rank(vector, k, filter), nil
}

// SearchVector ranks entries against a precomputed vector.
func (s *MemoryStore) SearchVector(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.rank(vector, k, nil), nil
}

func (s *MemoryStore) rank(vector []float32, k int, filter *Filter) []ScoredChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		entry memoryEntry
		score float64
	}
	candidates := make([]candidate, 0, len(s.entries))
	for _, entry := range s.entries {
		if !filter.Matches(entry.chunk.Metadata) {
			continue
		}
		candidates = append(candidates, candidate{
			entry: entry,
			score: cosineSimilarity(vector, entry.vector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq < candidates[j].entry.seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	scored := make([]ScoredChunk, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoredChunk{Chunk: c.entry.chunk, Score: c.score}
	}
	return scored
}

// DeleteBySource removes all entries for the source path.
func (s *MemoryStore) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	deleted := 0
	for _, entry := range s.entries {
		if entry.chunk.Metadata.SourcePath == sourcePath {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return deleted, nil
}

// ListSources aggregates chunk counts per source document.
func (s *MemoryStore) ListSources(ctx context.Context) ([]SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource := make(map[string]*SourceInfo)
	for _, entry := range s.entries {
		meta := entry.chunk.Metadata
		if meta.SourcePath == "" {
			continue
		}
		info, ok := bySource[meta.SourcePath]
		if !ok {
			info = &SourceInfo{SourcePath: meta.SourcePath, FileName: meta.FileName}
			bySource[meta.SourcePath] = info
		}
		info.Chunks++
	}

	sources := make([]SourceInfo, 0, len(bySource))
	for _, info := range bySource {
		sources = append(sources, *info)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].SourcePath < sources[j].SourcePath
	})
	return sources, nil
}

// Reset drops every entry and restarts the sequence.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.nextSeq = 0
	return nil
}

// Stats reports the entry count.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		EntryCount:      len(s.entries),
		CollectionName:  DefaultCollection,
		StorageLocation: "memory",
	}, nil
}

// Health always succeeds for the in-process backend.
func (s *MemoryStore) Health(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// cosineSimilarity computes the cosine of the angle between two vectors,
// or 0 when either has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Store = (*MemoryStore)(nil)
