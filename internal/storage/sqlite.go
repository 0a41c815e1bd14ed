package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content TEXT NOT NULL,
	embedding TEXT NOT NULL,
	source_path TEXT NOT NULL,
	file_name TEXT NOT NULL DEFAULT '',
	chunk_index INTEGER NOT NULL DEFAULT 0,
	content_type TEXT NOT NULL DEFAULT 'text',
	table_id TEXT NOT NULL DEFAULT '',
	upload_timestamp TEXT NOT NULL DEFAULT '',
	total_chunks INTEGER NOT NULL DEFAULT 0,
	page INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_path);
`

// SQLiteStore is a single-file index backend for deployments without a
// vector database. Embeddings are stored as JSON and similarity is computed
// in process, which is fine for the corpus sizes a single service handles.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
	path     string
}

// NewSQLiteStore opens (or creates) the database file and ensures the
// schema exists.
func NewSQLiteStore(path string, embedder Embedder) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, embedder: embedder, path: path}, nil
}

// Insert embeds all chunks, then writes them in one transaction so the
// batch commits or rolls back as a unit.
func (s *SQLiteStore) Insert(ctx context.Context, chunks []chunk.Chunk) error {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (content, embedding, source_path, file_name, chunk_index,
			content_type, table_id, upload_timestamp, total_chunks, page)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		embedding, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		m := c.Metadata
		_, err = stmt.ExecContext(ctx, c.Content, string(embedding), m.SourcePath, m.FileName,
			m.ChunkIndex, m.ContentType, m.TableID, m.UploadTimestamp, m.TotalChunks, m.Page)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Search embeds the query and returns the k most similar chunks.
func (s *SQLiteStore) Search(ctx context.Context, query string, k int, filter *Filter) ([]chunk.Chunk, error) {
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

// SearchWithScores embeds the query and ranks all stored rows by cosine
// similarity, ties broken by row id.
func (s *SQLiteStore) SearchWithScores(ctx context.Context, query string, k int, filter *Filter) ([]ScoredChunk, error) {
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
	return s.rank(ctx, vector, k, filter)
}

// SearchVector ranks stored rows against a precomputed vector.
func (s *SQLiteStore) SearchVector(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.rank(ctx, vector, k, nil)
}

func (s *SQLiteStore) rank(ctx context.Context, vector []float32, k int, filter *Filter) ([]ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content, embedding, source_path, file_name, chunk_index,
			content_type, table_id, upload_timestamp, total_chunks, page
		FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	defer rows.Close()

	var scored []ScoredChunk
	for rows.Next() {
		var c chunk.Chunk
		var embedding string
		m := &c.Metadata
		err := rows.Scan(&c.Content, &embedding, &m.SourcePath, &m.FileName, &m.ChunkIndex,
			&m.ContentType, &m.TableID, &m.UploadTimestamp, &m.TotalChunks, &m.Page)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if !filter.Matches(c.Metadata) {
			continue
		}
		var stored []float32
		if err := json.Unmarshal([]byte(embedding), &stored); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		scored = append(scored, ScoredChunk{Chunk: c, Score: cosineSimilarity(vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	// Rows arrive in id order, so the stable sort keeps insertion order for
	// equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// DeleteBySource removes every row for the source path.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE source_path = ?`, sourcePath)
	if err != nil {
		return 0, fmt.Errorf("delete chunks for %s: %w", sourcePath, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted rows: %w", err)
	}
	return int(affected), nil
}

// ListSources aggregates chunk counts per source document.
func (s *SQLiteStore) ListSources(ctx context.Context) ([]SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_path, file_name, COUNT(*)
		FROM chunks GROUP BY source_path ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []SourceInfo
	for rows.Next() {
		var info SourceInfo
		if err := rows.Scan(&info.SourcePath, &info.FileName, &info.Chunks); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, info)
	}
	return sources, rows.Err()
}

// Reset deletes every row and restarts the id sequence.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("reset chunks: %w", err)
	}
	// Restart AUTOINCREMENT so a fresh generation starts at id 1. The
	// sequence table only exists once a row has ever been inserted.
	var hasSeq int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'`).Scan(&hasSeq)
	if err != nil {
		return fmt.Errorf("reset sequence: %w", err)
	}
	if hasSeq > 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'chunks'`); err != nil {
			return fmt.Errorf("reset sequence: %w", err)
		}
	}
	return nil
}

// Stats reports the row count and database file location.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	if err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	return Stats{
		EntryCount:      count,
		CollectionName:  DefaultCollection,
		StorageLocation: s.path,
	}, nil
}

// Health checks the database connection.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
