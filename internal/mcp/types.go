// Package mcp exposes the banking document assistant to MCP clients.
package mcp

import (
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/service"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// AskQuestionInput defines the input parameters for the ask_question tool.
type AskQuestionInput struct {
	// Question is the banking question to answer.
	Question string `json:"question" jsonschema:"required,description=The banking question to answer from the indexed documents"`
}

// AskQuestionOutput contains the grounded answer.
type AskQuestionOutput struct {
	// Answer is the generated answer, or the refusal text when the
	// indexed documents hold no relevant evidence.
	Answer string `json:"answer"`
	// Outcome tags how the query resolved: answered or no_evidence.
	Outcome string `json:"outcome"`
	// Confidence grades how well the answer is supported: high, medium, or low.
	Confidence string `json:"confidence"`
	// Sources lists the document chunks the answer was built from.
	Sources []chunk.Metadata `json:"sources"`
}

// SearchDocumentsInput defines the input parameters for the search_documents tool.
type SearchDocumentsInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant document chunks"`
	// Limit is the maximum number of chunks to return.
	Limit int `json:"limit,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of chunks to return"`
}

// SearchDocumentsOutput contains the search results.
type SearchDocumentsOutput struct {
	// Results is the list of matching chunks with previews and scores.
	Results []service.SearchHit `json:"results"`
	// Count is the number of results returned.
	Count int `json:"count"`
	// Message provides informational context (e.g., "No matching documents found").
	Message string `json:"message,omitempty"`
}

// GetStatsInput defines the input parameters for the get_stats tool.
// This tool takes no parameters.
type GetStatsInput struct{}

// GetStatsOutput describes the current state of the knowledge base.
type GetStatsOutput struct {
	// EntryCount is the number of indexed chunks.
	EntryCount int `json:"entry_count"`
	// CollectionName is the index collection identifier.
	CollectionName string `json:"collection_name"`
	// StorageLocation names the backing store.
	StorageLocation string `json:"storage_location"`
	// HistoryLength is the number of conversation turns currently held.
	HistoryLength int `json:"history_length"`
}

// ListDocumentsInput defines the input parameters for the list_documents tool.
// This tool takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput lists the indexed source documents.
type ListDocumentsOutput struct {
	// Documents groups indexed chunks by their source document.
	Documents []storage.SourceInfo `json:"documents"`
	// TotalDocuments is the number of distinct sources.
	TotalDocuments int `json:"total_documents"`
	// TotalChunks is the number of indexed chunks across all sources.
	TotalChunks int `json:"total_chunks"`
}
