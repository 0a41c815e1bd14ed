// Package answer turns questions into document-grounded responses. Every
// answer is produced from retrieved chunks under a closed-world prompt:
// if the indexed documents cannot support an answer, the assistant says
// so instead of improvising.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 4

// Confidence grades how well an answer is supported by the index.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceError  Confidence = "error"
)

// Outcome tags how a query resolved, so callers can tell a refusal for
// lack of evidence apart from a system failure without parsing text.
type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeNoEvidence Outcome = "no_evidence"
	OutcomeError      Outcome = "error"
)

// Index is the slice of the storage API the answerer needs.
type Index interface {
	SearchWithScores(ctx context.Context, query string, k int, filter *storage.Filter) ([]storage.ScoredChunk, error)
	SearchVector(ctx context.Context, vector []float32, k int) ([]storage.ScoredChunk, error)
}

// Embedder re-embeds produced answers for the confidence check.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces chat completions.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// QueryResult is the full outcome of one question.
type QueryResult struct {
	Answer     string            `json:"answer"`
	Outcome    Outcome           `json:"outcome"`
	Confidence Confidence        `json:"confidence"`
	Policy     Policy            `json:"policy,omitempty"`
	Sources    []chunk.Metadata  `json:"sources"`
	Context    string            `json:"context,omitempty"`
	Validation *ValidationReport `json:"validation,omitempty"`
}

// Answerer retrieves evidence for a question, selects an answering
// policy, generates a grounded answer, and grades its confidence.
type Answerer struct {
	index    Index
	embedder Embedder
	llm      Generator
	history  *conversation.History
	topK     int
	logger   *slog.Logger
}

// New creates an answerer over the given capabilities. A nil history
// gets a default-sized one; topK below 1 falls back to DefaultTopK.
func New(
	index Index,
	embedder Embedder,
	llm Generator,
	history *conversation.History,
	topK int,
	logger *slog.Logger,
) *Answerer {
	if history == nil {
		history = conversation.NewHistory(conversation.DefaultMaxTurns)
	}
	if topK < 1 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{
		index:    index,
		embedder: embedder,
		llm:      llm,
		history:  history,
		topK:     topK,
		logger:   logger,
	}
}

// History exposes the conversation state shared with callers.
func (a *Answerer) History() *conversation.History {
	return a.history
}

// Ask answers a single question against the index. Faults surface as
// tagged results rather than errors: retries live in the capability
// clients, and the caller always gets something it can render.
func (a *Answerer) Ask(ctx context.Context, question string, filter *storage.Filter) QueryResult {
	scored, err := a.index.SearchWithScores(ctx, question, a.topK, filter)
	if err != nil {
		a.logger.Error("retrieval failed", "error", err)
		return errorResult(err)
	}
	if len(scored) == 0 {
		return QueryResult{
			Answer:     RefusalText,
			Outcome:    OutcomeNoEvidence,
			Confidence: ConfidenceLow,
			Sources:    []chunk.Metadata{},
		}
	}

	chunks := make([]chunk.Chunk, len(scored))
	sources := make([]chunk.Metadata, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
		sources[i] = s.Chunk.Metadata
	}

	policy := classify(chunks)
	contextText := ComposeContext(chunks)

	answerText, err := a.llm.Generate(ctx, "", buildPrompt(policy, contextText, question))
	if err != nil {
		a.logger.Error("generation failed", "policy", string(policy), "error", err)
		return errorResult(err)
	}

	result := QueryResult{
		Answer:  answerText,
		Outcome: OutcomeAnswered,
		Policy:  policy,
		Sources: sources,
		Context: contextText,
	}

	// Validation is advisory; a refused answer has nothing to check.
	if !isRefusal(answerText) {
		result.Validation = a.validate(ctx, answerText, contextText)
	}
	result.Confidence = a.confidence(ctx, answerText, len(chunks))

	a.logger.Info("question answered",
		"policy", string(policy),
		"outcome", string(result.Outcome),
		"confidence", string(result.Confidence),
		"sources", len(sources),
	)
	return result
}

// AskWithHistory seeds the shared conversation state with prior turns,
// answers the question, and records the new exchange. History is kept
// for the caller's transcript; it does not yet steer retrieval.
func (a *Answerer) AskWithHistory(ctx context.Context, question string, turns []conversation.Turn) QueryResult {
	if len(turns) > 0 {
		a.history.Record(turns)
	}
	result := a.Ask(ctx, question, nil)
	a.history.Append(question, result.Answer)
	return result
}

func errorResult(err error) QueryResult {
	return QueryResult{
		Answer:     fmt.Sprintf("Error processing query: %v", err),
		Outcome:    OutcomeError,
		Confidence: ConfidenceError,
		Sources:    []chunk.Metadata{},
	}
}

// isRefusal recognizes the closed-world refusal wordings the prompt
// templates mandate.
func isRefusal(answer string) bool {
	return strings.Contains(answer, "I cannot answer this question based on the uploaded documents") ||
		strings.Contains(answer, "information is not available in the uploaded")
}

func (a *Answerer) validate(ctx context.Context, answerText, contextText string) *ValidationReport {
	raw, err := a.llm.Generate(ctx, "", buildValidationPrompt(answerText, contextText))
	if err != nil {
		a.logger.Warn("validation call failed", "error", err)
		return nil
	}
	return parseValidation(raw)
}

// confidence re-embeds the produced answer and averages its similarity
// against the index. Any failure degrades to medium rather than
// blocking the answer.
func (a *Answerer) confidence(ctx context.Context, answerText string, k int) Confidence {
	vec, err := a.embedder.EmbedQuery(ctx, answerText)
	if err != nil {
		a.logger.Warn("confidence embedding failed", "error", err)
		return ConfidenceMedium
	}
	scored, err := a.index.SearchVector(ctx, vec, k)
	if err != nil {
		a.logger.Warn("confidence search failed", "error", err)
		return ConfidenceMedium
	}
	if len(scored) == 0 {
		return ConfidenceMedium
	}

	var sum float64
	for _, s := range scored {
		sum += s.Score
	}
	avg := sum / float64(len(scored))

	switch {
	case avg > 0.8:
		return ConfidenceHigh
	case avg > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
