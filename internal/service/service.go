// Package service is the application facade. Every operation returns an
// envelope with a success flag and readable error text, so the HTTP
// API, MCP tools, and CLI all render results the same way without
// interpreting internal errors.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/extract"
	"github.com/parker-estes/bankdocs/internal/ingest"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// invalidQuestion is returned verbatim for blank questions.
const invalidQuestion = "Please provide a valid question."

// maxSearchContent caps search result previews.
const maxSearchContent = 500

// Service bundles the ingestion pipeline, answerer, extractor, and
// index behind envelope-returning methods.
type Service struct {
	pipeline  *ingest.Pipeline
	answerer  *answer.Answerer
	extractor *extract.Extractor
	store     storage.Store
	logger    *slog.Logger
}

// New assembles the facade from its collaborators.
func New(
	pipeline *ingest.Pipeline,
	answerer *answer.Answerer,
	extractor *extract.Extractor,
	store storage.Store,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline:  pipeline,
		answerer:  answerer,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// LoadDocuments ingests the given files and directories into the index.
// Per-document failures are reported in the response; the run fails as
// a whole only when nothing at all was indexed.
func (s *Service) LoadDocuments(ctx context.Context, paths []string) LoadResponse {
	if len(paths) == 0 {
		return LoadResponse{Envelope: fail("no document paths given")}
	}

	result, err := s.pipeline.Run(ctx, paths)
	if err != nil {
		return LoadResponse{Envelope: failf("Error loading documents: %v", err)}
	}

	resp := LoadResponse{
		Envelope:         ok(),
		DocumentsIndexed: result.DocumentsIndexed,
		ChunksIndexed:    result.ChunksIndexed,
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, FailedDocument{Path: f.Path, Reason: f.Reason})
	}
	if result.DocumentsIndexed == 0 {
		resp.Envelope = fail("no documents found or processed")
	}
	return resp
}

// Ask answers a question against the indexed documents.
func (s *Service) Ask(ctx context.Context, question string) AskResponse {
	if strings.TrimSpace(question) == "" {
		return invalidQuestionResponse()
	}
	return askResponse(s.answerer.Ask(ctx, question, nil))
}

// AskWithHistory answers a question after replaying the given prior
// turns into the conversation state.
func (s *Service) AskWithHistory(ctx context.Context, question string, turns []conversation.Turn) AskResponse {
	if strings.TrimSpace(question) == "" {
		return invalidQuestionResponse()
	}
	return askResponse(s.answerer.AskWithHistory(ctx, question, turns))
}

func invalidQuestionResponse() AskResponse {
	return AskResponse{
		Envelope:   fail(invalidQuestion),
		Answer:     invalidQuestion,
		Outcome:    answer.OutcomeError,
		Confidence: answer.ConfidenceLow,
		Sources:    []chunk.Metadata{},
	}
}

func askResponse(result answer.QueryResult) AskResponse {
	resp := AskResponse{
		Envelope:   ok(),
		Answer:     result.Answer,
		Outcome:    result.Outcome,
		Confidence: result.Confidence,
		Policy:     result.Policy,
		Sources:    result.Sources,
		Validation: result.Validation,
	}
	if resp.Sources == nil {
		resp.Sources = []chunk.Metadata{}
	}
	if result.Outcome == answer.OutcomeError {
		resp.Envelope = fail(result.Answer)
	}
	return resp
}

// GetStructured extracts data matching the given JSON format template.
func (s *Service) GetStructured(ctx context.Context, question, format string) StructuredResponse {
	if strings.TrimSpace(question) == "" {
		return StructuredResponse{Envelope: fail(invalidQuestion)}
	}
	result, err := s.extractor.Query(ctx, question, format)
	if err != nil {
		return StructuredResponse{Envelope: fail(err.Error())}
	}
	return structuredResponse(result)
}

// LoanInformation extracts loan products and fees, optionally scoped
// to one loan type.
func (s *Service) LoanInformation(ctx context.Context, loanType string) StructuredResponse {
	result, err := s.extractor.LoanInformation(ctx, loanType)
	if err != nil {
		return StructuredResponse{Envelope: failf("Error getting loan information: %v", err)}
	}
	return structuredResponse(result)
}

// ComplianceRequirements extracts regulations and procedures,
// optionally scoped to one regulation.
func (s *Service) ComplianceRequirements(ctx context.Context, regulationType string) StructuredResponse {
	result, err := s.extractor.ComplianceRequirements(ctx, regulationType)
	if err != nil {
		return StructuredResponse{Envelope: failf("Error getting compliance requirements: %v", err)}
	}
	return structuredResponse(result)
}

func structuredResponse(result extract.StructuredResult) StructuredResponse {
	resp := StructuredResponse{Envelope: ok(), Sources: result.Sources}
	if result.Parsed() {
		resp.Structured = result.Structured
		return resp
	}
	resp.Raw = result.Unparsed
	resp.FormatError = true
	return resp
}

// Search runs a similarity search and returns previews truncated at
// 500 characters. Validation errors from the store become failure
// envelopes.
func (s *Service) Search(ctx context.Context, query string, k int) SearchResponse {
	results, err := s.store.SearchWithScores(ctx, query, k, nil)
	if err != nil {
		return SearchResponse{Envelope: failf("Error searching documents: %v", err)}
	}

	resp := SearchResponse{
		Envelope: ok(),
		Results:  make([]SearchHit, 0, len(results)),
		Count:    len(results),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchHit{
			Content:  truncateContent(r.Chunk.Content),
			Metadata: r.Chunk.Metadata,
			Score:    r.Score,
		})
	}
	return resp
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= maxSearchContent {
		return content
	}
	return string(runes[:maxSearchContent]) + "..."
}

// Stats reports index size, location, and held conversation turns.
func (s *Service) Stats(ctx context.Context) StatsResponse {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return StatsResponse{Envelope: failf("Error getting stats: %v", err)}
	}
	return StatsResponse{
		Envelope:      ok(),
		Stats:         stats,
		HistoryLength: s.answerer.History().Len(),
	}
}

// DeleteBySource removes every chunk belonging to one source document.
func (s *Service) DeleteBySource(ctx context.Context, source string) DeleteResponse {
	if strings.TrimSpace(source) == "" {
		return DeleteResponse{Envelope: fail("source path is required")}
	}
	deleted, err := s.store.DeleteBySource(ctx, source)
	if err != nil {
		return DeleteResponse{Envelope: failf("Error deleting document: %v", err), Source: source}
	}
	return DeleteResponse{Envelope: ok(), Source: source, Deleted: deleted}
}

// Reset drops the whole index and clears the conversation history.
func (s *Service) Reset(ctx context.Context) Envelope {
	if err := s.store.Reset(ctx); err != nil {
		return failf("Error resetting knowledge base: %v", err)
	}
	s.answerer.History().Clear()
	return ok()
}

// ClearHistory forgets all conversation turns.
func (s *Service) ClearHistory() Envelope {
	s.answerer.History().Clear()
	return ok()
}

// ListDocuments summarizes the indexed corpus grouped by source.
func (s *Service) ListDocuments(ctx context.Context) ListResponse {
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return ListResponse{Envelope: failf("Error getting documents list: %v", err)}
	}
	resp := ListResponse{
		Envelope:       ok(),
		Documents:      sources,
		TotalDocuments: len(sources),
	}
	if resp.Documents == nil {
		resp.Documents = []storage.SourceInfo{}
	}
	for _, src := range sources {
		resp.TotalChunks += src.Chunks
	}
	return resp
}

// Health reports whether the backing index is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
