package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// upsertBatchSize bounds the number of points sent per Upsert RPC.
const upsertBatchSize = 100

// QdrantStore is the production index backend, backed by a Qdrant collection
// over gRPC with cosine distance.
type QdrantStore struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
	addr       string
}

// NewQdrantStore connects to Qdrant and verifies it is reachable, retrying
// with exponential backoff before giving up. The collection is not created
// here; call EnsureCollection once at startup.
func NewQdrantStore(host string, port int, collection string, embedder Embedder) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}
	store := &QdrantStore{
		client:     client,
		embedder:   embedder,
		collection: collection,
		addr:       fmt.Sprintf("%s:%d", host, port),
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return store, nil
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with cosine distance and the
// payload indexes the delete path filters on. Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return s.createPayloadIndexes(ctx)
}

// createPayloadIndexes indexes the fields used in filters. Without these,
// filtered operations scan the whole collection.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context) error {
	for _, field := range []string{"source_path", "content_type"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}
	return nil
}

// Insert embeds all chunk contents and upserts the resulting points in
// batches. Any embedding failure aborts before anything is written.
func (s *QdrantStore) Insert(ctx context.Context, chunks []chunk.Chunk) error {
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
	for i, v := range vectors {
		if len(v) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), VectorDimension)
		}
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(chunkPayload(chunks[i])),
			})
		}
		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search embeds the query text and returns the k most similar chunks.
func (s *QdrantStore) Search(ctx context.Context, query string, k int, filter *Filter) ([]chunk.Chunk, error) {
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

// SearchWithScores embeds the query text and returns the k most similar
// chunks with their cosine similarity scores.
func (s *QdrantStore) SearchWithScores(ctx context.Context, query string, k int, filter *Filter) ([]ScoredChunk, error) {
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
	return s.queryScored(ctx, vector, k, filter)
}

// SearchVector searches with a precomputed embedding vector.
func (s *QdrantStore) SearchVector(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}
	return s.queryScored(ctx, vector, k, nil)
}

func (s *QdrantStore) queryScored(ctx context.Context, vector []float32, k int, filter *Filter) ([]ScoredChunk, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, ScoredChunk{
			Chunk: chunkFromPayload(result.Payload),
			Score: float64(result.Score),
		})
	}
	return scored, nil
}

// DeleteBySource removes every chunk whose source_path matches and reports
// how many points were removed.
func (s *QdrantStore) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source_path", sourcePath),
		},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count points for %s: %w", sourcePath, err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("delete points for %s: %w", sourcePath, err)
	}
	return int(count), nil
}

// ListSources scrolls the collection and aggregates chunk counts per source
// document. Points are deduplicated by id since scroll pages can overlap at
// the offset boundary.
func (s *QdrantStore) ListSources(ctx context.Context) ([]SourceInfo, error) {
	type pointMeta struct {
		source string
		file   string
	}
	seen := make(map[string]pointMeta)

	var offset *qdrant.PointId
	batchSize := uint32(256)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("source_path", "file_name"),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		for _, result := range results {
			seen[result.Id.GetUuid()] = pointMeta{
				source: result.Payload["source_path"].GetStringValue(),
				file:   result.Payload["file_name"].GetStringValue(),
			}
		}
		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	bySource := make(map[string]*SourceInfo)
	for _, meta := range seen {
		if meta.source == "" {
			continue
		}
		info, ok := bySource[meta.source]
		if !ok {
			info = &SourceInfo{SourcePath: meta.source, FileName: meta.file}
			bySource[meta.source] = info
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

// Reset drops the collection and recreates it empty.
func (s *QdrantStore) Reset(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
				return fmt.Errorf("delete collection: %w", err)
			}
			break
		}
	}
	return s.EnsureCollection(ctx)
}

// Stats reports the point count and the Qdrant address backing the index.
func (s *QdrantStore) Stats(ctx context.Context) (Stats, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return Stats{}, fmt.Errorf("get collection: %w", err)
	}
	return Stats{
		EntryCount:      int(collection.GetPointsCount()),
		CollectionName:  s.collection,
		StorageLocation: s.addr,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// qdrantFilter converts the portable Filter into Qdrant match conditions.
func qdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil {
		return nil
	}
	var must []*qdrant.Condition
	if filter.SourcePath != "" {
		must = append(must, qdrant.NewMatch("source_path", filter.SourcePath))
	}
	if filter.ContentType != "" {
		must = append(must, qdrant.NewMatch("content_type", filter.ContentType))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// chunkPayload flattens a chunk into the point payload stored in Qdrant.
func chunkPayload(c chunk.Chunk) map[string]any {
	return map[string]any{
		"content":          c.Content,
		"source_path":      c.Metadata.SourcePath,
		"file_name":        c.Metadata.FileName,
		"chunk_index":      c.Metadata.ChunkIndex,
		"content_type":     c.Metadata.ContentType,
		"table_id":         c.Metadata.TableID,
		"upload_timestamp": c.Metadata.UploadTimestamp,
		"total_chunks":     c.Metadata.TotalChunks,
		"page":             c.Metadata.Page,
	}
}

// chunkFromPayload rebuilds a chunk from a point payload.
func chunkFromPayload(payload map[string]*qdrant.Value) chunk.Chunk {
	return chunk.Chunk{
		Content: payload["content"].GetStringValue(),
		Metadata: chunk.Metadata{
			SourcePath:      payload["source_path"].GetStringValue(),
			FileName:        payload["file_name"].GetStringValue(),
			ChunkIndex:      int(payload["chunk_index"].GetIntegerValue()),
			ContentType:     payload["content_type"].GetStringValue(),
			TableID:         payload["table_id"].GetStringValue(),
			UploadTimestamp: payload["upload_timestamp"].GetStringValue(),
			TotalChunks:     int(payload["total_chunks"].GetIntegerValue()),
			Page:            int(payload["page"].GetIntegerValue()),
		},
	}
}

// Interface conformance is checked at compile time.
var _ Store = (*QdrantStore)(nil)
