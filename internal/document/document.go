// Package document loads files into raw text ready for chunking. Each
// supported format is normalized so downstream table detection keeps
// working: CSVs become pipe tables, markdown keeps its tables and code
// verbatim, PDFs yield one document per page.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// ErrUnsupported marks a file whose extension has no loader.
var ErrUnsupported = errors.New("unsupported document type")

var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
	".pdf": true,
}

// Supported reports whether a loader exists for the file's extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// RawDocument is loaded text plus the base metadata its chunks inherit.
type RawDocument struct {
	Text  string
	Title string
	Meta  chunk.Metadata
}

// FileError records a single file that failed to load during a batch.
type FileError struct {
	Path string
	Err  error
}

// Loader reads supported document formats from disk.
type Loader struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		logger: logger,
	}
}

// Load reads one file and returns its raw documents. PDFs produce one
// per page; every other format produces exactly one.
func (l *Loader) Load(path string) ([]RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("load %s: is a directory, use LoadDir", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return []RawDocument{{
			Text:  normalizeText(string(data)),
			Title: defaultTitle(path),
			Meta:  baseMeta(path),
		}}, nil
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return l.loadMarkdown(path, data)
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return loadCSV(path, data)
	case ".pdf":
		return loadPDF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// ListFiles expands a path into the loadable files beneath it. A
// supported file returns itself; a directory is walked recursively with
// unsupported files skipped silently.
func (l *Loader) ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		if !Supported(root) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, root)
		}
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// LoadDir loads every supported file under root. Individual failures
// are collected and returned; they never abort the rest of the batch.
func (l *Loader) LoadDir(root string) ([]RawDocument, []FileError, error) {
	files, err := l.ListFiles(root)
	if err != nil {
		return nil, nil, err
	}

	var docs []RawDocument
	var failed []FileError
	for _, f := range files {
		loaded, err := l.Load(f)
		if err != nil {
			l.logger.Warn("failed to load document", "path", f, "error", err)
			failed = append(failed, FileError{Path: f, Err: err})
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs, failed, nil
}

func baseMeta(path string) chunk.Metadata {
	return chunk.Metadata{
		SourcePath: path,
		FileName:   filepath.Base(path),
	}
}

func defaultTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeText unifies line endings and strips trailing whitespace per
// line so chunk boundaries and table detection behave the same across
// platforms.
func normalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
