// Package extract answers questions with schema-shaped JSON instead of
// prose, for callers that need machine-readable loan or compliance data.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 4

// ErrNoEvidence is returned when retrieval finds nothing to extract from.
var ErrNoEvidence = errors.New("no relevant documents found")

const structuredPrompt = `Based on the following banking context, answer the question in the specified format.

Context: %s

Question: %s

Required Format: %s

Respond with a single JSON object in exactly the format specified above, populated only from the context.`

// Index is the slice of the storage API the extractor needs.
type Index interface {
	Search(ctx context.Context, query string, k int, filter *storage.Filter) ([]chunk.Chunk, error)
}

// Generator produces JSON-mode chat completions.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user string) (string, error)
}

// StructuredResult carries either the parsed JSON object or, when the
// model's output was not valid JSON, the raw text. Exactly one of
// Structured and Unparsed is set; sources come along either way.
type StructuredResult struct {
	Structured map[string]any   `json:"data,omitempty"`
	Unparsed   string           `json:"raw,omitempty"`
	Sources    []chunk.Metadata `json:"sources"`
	Context    string           `json:"context,omitempty"`
}

// Parsed reports whether the model produced valid JSON.
func (r StructuredResult) Parsed() bool {
	return r.Structured != nil
}

// Extractor retrieves evidence and asks the model to fill a response
// schema strictly from it.
type Extractor struct {
	index  Index
	llm    Generator
	topK   int
	logger *slog.Logger
}

// New creates an extractor. topK below 1 falls back to DefaultTopK.
func New(index Index, llm Generator, topK int, logger *slog.Logger) *Extractor {
	if topK < 1 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{index: index, llm: llm, topK: topK, logger: logger}
}

// Query retrieves evidence for the question and asks for a response in
// the given format. A model reply that fails to parse as JSON is not an
// error; it comes back on the Unparsed branch for the caller to show.
func (e *Extractor) Query(ctx context.Context, question, format string) (StructuredResult, error) {
	chunks, err := e.index.Search(ctx, question, e.topK, nil)
	if err != nil {
		return StructuredResult{}, fmt.Errorf("search: %w", err)
	}
	if len(chunks) == 0 {
		return StructuredResult{}, ErrNoEvidence
	}

	contextText := answer.ComposeContext(chunks)
	prompt := fmt.Sprintf(structuredPrompt, contextText, question, format)

	raw, err := e.llm.GenerateJSON(ctx, "", prompt)
	if err != nil {
		return StructuredResult{}, fmt.Errorf("generate structured response: %w", err)
	}

	sources := make([]chunk.Metadata, len(chunks))
	for i, c := range chunks {
		sources[i] = c.Metadata
	}
	result := StructuredResult{Sources: sources, Context: contextText}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		e.logger.Warn("structured response is not valid JSON", "error", err)
		result.Unparsed = raw
		return result, nil
	}
	result.Structured = parsed
	return result, nil
}
