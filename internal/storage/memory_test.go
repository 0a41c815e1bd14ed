package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// stubEmbedder produces deterministic keyword-axis vectors so similarity
// ordering in tests is predictable without a live embedding backend.
type stubEmbedder struct {
	dims int
}

var stubAxes = map[string]int{
	"loan":       0,
	"card":       1,
	"fee":        2,
	"deposit":    3,
	"regulation": 4,
}

func newStubEmbedder(dims int) *stubEmbedder {
	return &stubEmbedder{dims: dims}
}

func (e *stubEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	lower := strings.ToLower(text)
	hit := false
	for word, axis := range stubAxes {
		if strings.Contains(lower, word) {
			v[axis] = 1
			hit = true
		}
	}
	if !hit {
		v[e.dims-1] = 1
	}
	return v
}

func (e *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

// failEmbedder fails every call, for batch-abort tests.
type failEmbedder struct{}

func (failEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}

func (failEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding backend down")
}

var (
	_ Embedder = (*stubEmbedder)(nil)
	_ Embedder = failEmbedder{}
)

func textChunk(source, content string, index int) chunk.Chunk {
	return chunk.Chunk{
		Content: content,
		Metadata: chunk.Metadata{
			SourcePath:  source,
			FileName:    source[strings.LastIndex(source, "/")+1:],
			ChunkIndex:  index,
			ContentType: chunk.ContentTypeText,
		},
	}
}

func TestMemoryInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	err := store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "Personal loan APR information", 0),
		textChunk("/docs/cards.txt", "Credit card limits and terms", 0),
	})
	require.NoError(t, err)

	results, err := store.SearchWithScores(ctx, "what is the loan rate", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "/docs/loans.txt", results[0].Chunk.Metadata.SourcePath)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemorySearchEmptyIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	results, err := store.Search(ctx, "anything", 4, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemorySearchValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	_, err := store.Search(ctx, "", 4, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = store.Search(ctx, "query", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMemoryDeleteBySource(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "loan chunk one", 0),
		textChunk("/docs/loans.txt", "loan chunk two", 1),
		textChunk("/docs/loans.txt", "loan chunk three", 2),
		textChunk("/docs/cards.txt", "card chunk one", 0),
		textChunk("/docs/cards.txt", "card chunk two", 1),
	}))

	deleted, err := store.DeleteBySource(ctx, "/docs/loans.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	// No chunk from the deleted source is retrievable by any query.
	results, err := store.Search(ctx, "loan", 10, nil)
	require.NoError(t, err)
	for _, c := range results {
		assert.NotEqual(t, "/docs/loans.txt", c.Metadata.SourcePath)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EntryCount)

	// Deleting an absent source removes nothing.
	deleted, err = store.DeleteBySource(ctx, "/docs/missing.txt")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryResetIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "loan data", 0),
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Reset(ctx))
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.EntryCount, "reset %d should leave an empty index", i+1)
	}

	// The index keeps working after reset.
	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/fees.txt", "fee schedule", 0),
	}))
	results, err := store.Search(ctx, "fee", 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/fees.txt", results[0].Metadata.SourcePath)
}

func TestMemoryTieBreakIsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	// Identical content embeds to identical vectors, forcing a score tie.
	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/first.txt", "deposit account terms", 0),
		textChunk("/docs/second.txt", "deposit account terms", 0),
	}))

	for i := 0; i < 3; i++ {
		results, err := store.Search(ctx, "deposit", 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "/docs/first.txt", results[0].Metadata.SourcePath)
		assert.Equal(t, "/docs/second.txt", results[1].Metadata.SourcePath)
	}
}

func TestMemorySearchFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	table := textChunk("/docs/fees.txt", "fee table rows", 1)
	table.Metadata.ContentType = chunk.ContentTypeTable
	table.Metadata.TableID = "table_1"

	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/fees.txt", "fee overview text", 0),
		table,
		textChunk("/docs/loans.txt", "loan fee text", 0),
	}))

	results, err := store.Search(ctx, "fee", 10, &Filter{ContentType: chunk.ContentTypeTable})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "table_1", results[0].Metadata.TableID)

	results, err = store.Search(ctx, "fee", 10, &Filter{SourcePath: "/docs/loans.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/loans.txt", results[0].Metadata.SourcePath)
}

func TestMemorySearchVector(t *testing.T) {
	ctx := context.Background()
	embedder := newStubEmbedder(8)
	store := NewMemoryStore(embedder)

	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "loan terms", 0),
	}))

	vec, err := embedder.EmbedQuery(ctx, "loan")
	require.NoError(t, err)

	results, err := store.SearchVector(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemoryListSources(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(newStubEmbedder(8))

	require.NoError(t, store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "loan one", 0),
		textChunk("/docs/loans.txt", "loan two", 1),
		textChunk("/docs/cards.txt", "card one", 0),
	}))

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "/docs/cards.txt", sources[0].SourcePath)
	assert.Equal(t, 1, sources[0].Chunks)
	assert.Equal(t, "/docs/loans.txt", sources[1].SourcePath)
	assert.Equal(t, 2, sources[1].Chunks)
	assert.Equal(t, "loans.txt", sources[1].FileName)
}

func TestMemoryInsertAbortsOnEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(failEmbedder{})

	err := store.Insert(ctx, []chunk.Chunk{
		textChunk("/docs/loans.txt", "loan data", 0),
	})
	require.Error(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount, "failed insert must not persist partial batches")
}

func TestMemoryInsertEmptyBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(failEmbedder{})

	// Inserting nothing never touches the embedder.
	require.NoError(t, store.Insert(ctx, nil))
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, cosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}
