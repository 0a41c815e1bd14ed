package service

import (
	"fmt"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// Envelope is the uniform header on every service response. Transports
// render Success/Error without inspecting the payload.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Envelope { return Envelope{Success: true} }

func fail(msg string) Envelope { return Envelope{Success: false, Error: msg} }

func failf(format string, args ...any) Envelope {
	return fail(fmt.Sprintf(format, args...))
}

// FailedDocument records one document that could not be ingested.
type FailedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// LoadResponse summarizes an ingestion run.
type LoadResponse struct {
	Envelope
	DocumentsIndexed int              `json:"documents_indexed"`
	ChunksIndexed    int              `json:"chunks_indexed"`
	Failed           []FailedDocument `json:"failed,omitempty"`
}

// AskResponse is the answer envelope for a single question.
type AskResponse struct {
	Envelope
	Answer     string                   `json:"answer"`
	Outcome    answer.Outcome           `json:"outcome"`
	Confidence answer.Confidence        `json:"confidence"`
	Policy     answer.Policy            `json:"policy,omitempty"`
	Sources    []chunk.Metadata         `json:"sources"`
	Validation *answer.ValidationReport `json:"validation,omitempty"`
}

// StructuredResponse carries extracted JSON data, or the raw model
// output with format_error set when the output was not valid JSON.
type StructuredResponse struct {
	Envelope
	Structured  map[string]any   `json:"structured,omitempty"`
	Raw         string           `json:"raw,omitempty"`
	FormatError bool             `json:"format_error,omitempty"`
	Sources     []chunk.Metadata `json:"sources,omitempty"`
}

// SearchHit is one similarity search result with its content preview.
type SearchHit struct {
	Content  string         `json:"content"`
	Metadata chunk.Metadata `json:"metadata"`
	Score    float64        `json:"score"`
}

// SearchResponse lists search hits in descending similarity order.
type SearchResponse struct {
	Envelope
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

// StatsResponse reports index size and location plus the number of
// conversation turns currently held.
type StatsResponse struct {
	Envelope
	storage.Stats
	HistoryLength int `json:"history_length"`
}

// DeleteResponse reports how many chunks a source deletion removed.
type DeleteResponse struct {
	Envelope
	Source  string `json:"source"`
	Deleted int    `json:"deleted"`
}

// ListResponse groups the indexed chunks by source document.
type ListResponse struct {
	Envelope
	Documents      []storage.SourceInfo `json:"documents"`
	TotalDocuments int                  `json:"total_documents"`
	TotalChunks    int                  `json:"total_chunks"`
}
