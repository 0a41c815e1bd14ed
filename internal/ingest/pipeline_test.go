package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/document"
)

type fakeStore struct {
	inserted  []chunk.Chunk
	deleted   []string
	insertErr error
	deleteErr error
}

func (f *fakeStore) Insert(ctx context.Context, chunks []chunk.Chunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeStore) DeleteBySource(ctx context.Context, sourcePath string) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, sourcePath)
	return 0, nil
}

type fakeLoader struct {
	docs map[string][]document.RawDocument
}

func (f *fakeLoader) ListFiles(root string) ([]string, error) {
	if _, ok := f.docs[root]; !ok {
		return nil, errors.New("not found")
	}
	return []string{root}, nil
}

func (f *fakeLoader) Load(path string) ([]document.RawDocument, error) {
	docs, ok := f.docs[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return docs, nil
}

var (
	_ Store  = (*fakeStore)(nil)
	_ Loader = (*fakeLoader)(nil)
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newPipeline(store Store) *Pipeline {
	return NewPipeline(document.NewLoader(nil), chunk.NewDefault(), store, nil)
}

func TestRunIndexesDirectory(t *testing.T) {
	dir := t.TempDir()
	loansPath := writeFile(t, dir, "loans.txt", "Personal Loan APR: 8.5% - 12.5%.")
	ratesPath := writeFile(t, dir, "rates.csv", "Account,Rate\nSavings,4.5%\n")

	store := &fakeStore{}
	result, err := newPipeline(store).Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 2, result.DocumentsIndexed)
	assert.Empty(t, result.Failed)
	assert.Equal(t, len(store.inserted), result.ChunksIndexed)
	require.NotEmpty(t, store.inserted)

	// Old chunks for each document are removed before the new insert.
	assert.ElementsMatch(t, []string{loansPath, ratesPath}, store.deleted)

	var sawTable bool
	for _, c := range store.inserted {
		switch c.Metadata.SourcePath {
		case loansPath:
			assert.Equal(t, chunk.ContentTypeText, c.Metadata.ContentType)
		case ratesPath:
			// The CSV renders as a pipe table and stays atomic.
			assert.Equal(t, chunk.ContentTypeTable, c.Metadata.ContentType)
			assert.Contains(t, c.Content, "| Savings | 4.5% |")
			sawTable = true
		default:
			t.Fatalf("unexpected source path %q", c.Metadata.SourcePath)
		}
		assert.NotEmpty(t, c.Metadata.UploadTimestamp)
	}
	assert.True(t, sawTable)
}

func TestRunCollectsPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "Wire transfers cost $25.")
	writeFile(t, dir, "bad.csv", "a,\"b\n")

	store := &fakeStore{}
	result, err := newPipeline(store).Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Equal(t, 1, result.DocumentsIndexed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bad.csv", filepath.Base(result.Failed[0].Path))
	assert.NotEmpty(t, result.Failed[0].Reason)
}

func TestRunMissingPath(t *testing.T) {
	store := &fakeStore{}
	result, err := newPipeline(store).Run(context.Background(), []string{"/does/not/exist"})
	require.NoError(t, err)

	assert.Zero(t, result.DocumentsIndexed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "/does/not/exist", result.Failed[0].Path)
}

func TestRunInsertFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "loans.txt", "Personal Loan APR: 8.5%.")

	store := &fakeStore{insertErr: errors.New("index offline")}
	result, err := newPipeline(store).Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Zero(t, result.DocumentsIndexed)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Reason, "index offline")
}

func TestRunEmptyDocumentCounted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", "   \n\n  ")

	store := &fakeStore{}
	result, err := newPipeline(store).Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, 1, result.DocumentsIndexed)
	assert.Zero(t, result.ChunksIndexed)
	assert.Empty(t, store.inserted)
	// Stale chunks for a now-empty document still get cleaned up.
	assert.Equal(t, []string{path}, store.deleted)
}

func TestIngestFileContinuesIndexesAcrossParts(t *testing.T) {
	source := "/docs/statement.pdf"
	loader := &fakeLoader{docs: map[string][]document.RawDocument{
		source: {
			{
				Text: "Introduction to the fee schedule.",
				Meta: chunk.Metadata{SourcePath: source, FileName: "statement.pdf", Page: 1},
			},
			{
				Text: "| Fee | Amount |\n| Wire | $25 |",
				Meta: chunk.Metadata{SourcePath: source, FileName: "statement.pdf", Page: 2},
			},
		},
	}}

	store := &fakeStore{}
	p := NewPipeline(loader, chunk.NewDefault(), store, nil)

	result, err := p.Run(context.Background(), []string{source})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentsIndexed)

	require.Len(t, store.inserted, 2)
	first, second := store.inserted[0], store.inserted[1]

	assert.Equal(t, 0, first.Metadata.ChunkIndex)
	assert.Equal(t, 1, first.Metadata.Page)

	// The table on page two continues the file-wide numbering.
	assert.Equal(t, 1, second.Metadata.ChunkIndex)
	assert.Equal(t, 2, second.Metadata.Page)
	assert.Equal(t, chunk.ContentTypeTable, second.Metadata.ContentType)
	assert.Equal(t, "table_1", second.Metadata.TableID)
}

func TestIngestText(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(&fakeLoader{}, chunk.NewDefault(), store, nil)

	base := chunk.Metadata{
		SourcePath: "github://bank/docs/fees.md",
		FileName:   "fees.md",
	}
	n, err := p.IngestText(context.Background(), "Wire transfers cost $25.", base)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"github://bank/docs/fees.md"}, store.deleted)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "github://bank/docs/fees.md", store.inserted[0].Metadata.SourcePath)
}
