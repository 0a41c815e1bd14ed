package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parker-estes/bankdocs/internal/answer"
	"github.com/parker-estes/bankdocs/internal/chunk"
	"github.com/parker-estes/bankdocs/internal/conversation"
	"github.com/parker-estes/bankdocs/internal/document"
	"github.com/parker-estes/bankdocs/internal/extract"
	"github.com/parker-estes/bankdocs/internal/ingest"
	"github.com/parker-estes/bankdocs/internal/storage"
)

// stubEmbedder maps banking keywords onto fixed axes so similarity is
// predictable without a real embedding model.
type stubEmbedder struct{}

const stubDims = 8

var stubAxes = map[string]int{
	"loan":       0,
	"apr":        0,
	"fee":        1,
	"card":       2,
	"regulation": 3,
	"compliance": 3,
	"deposit":    4,
}

func (stubEmbedder) embed(text string) []float32 {
	vec := make([]float32, stubDims)
	lower := strings.ToLower(text)
	matched := false
	for word, axis := range stubAxes {
		if strings.Contains(lower, word) {
			vec[axis]++
			matched = true
		}
	}
	if !matched {
		vec[stubDims-1] = 1
	}
	return vec
}

func (e stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// scriptedLLM pops canned responses in order and records every prompt.
type scriptedLLM struct {
	responses []string
	prompts   []string
}

func (l *scriptedLLM) next() string {
	if len(l.responses) == 0 {
		return "ok"
	}
	r := l.responses[0]
	l.responses = l.responses[1:]
	return r
}

func (l *scriptedLLM) Generate(_ context.Context, _, user string) (string, error) {
	l.prompts = append(l.prompts, user)
	return l.next(), nil
}

func (l *scriptedLLM) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	return l.Generate(ctx, system, user)
}

type testService struct {
	svc   *Service
	store *storage.MemoryStore
	llm   *scriptedLLM
	hist  *conversation.History
	dir   string
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	llm := &scriptedLLM{}
	emb := stubEmbedder{}
	store := storage.NewMemoryStore(emb)
	pipeline := ingest.NewPipeline(document.NewLoader(nil), chunk.NewDefault(), store, nil)
	answerer := answer.New(store, emb, llm, nil, answer.DefaultTopK, nil)
	extractor := extract.New(store, llm, answer.DefaultTopK, nil)

	return &testService{
		svc:   New(pipeline, answerer, extractor, store, nil),
		store: store,
		llm:   llm,
		hist:  answerer.History(),
		dir:   t.TempDir(),
	}
}

func (ts *testService) writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(ts.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (ts *testService) loadRates(t *testing.T) string {
	t.Helper()
	path := ts.writeDoc(t, "rates.md", "Personal Loan APR: 8.5% - 12.5%\n")
	resp := ts.svc.LoadDocuments(context.Background(), []string{path})
	require.True(t, resp.Success, resp.Error)
	return path
}

func TestServiceLoadDocuments(t *testing.T) {
	ts := newTestService(t)
	ts.writeDoc(t, "rates.md", "Personal Loan APR: 8.5% - 12.5%\n")
	ts.writeDoc(t, "fees.csv", "fee_type,amount\nWire transfer,$25\n")

	resp := ts.svc.LoadDocuments(context.Background(), []string{ts.dir})

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.DocumentsIndexed)
	assert.Equal(t, 2, resp.ChunksIndexed)
	assert.Empty(t, resp.Failed)

	stats := ts.svc.Stats(context.Background())
	assert.True(t, stats.Success)
	assert.Equal(t, 2, stats.EntryCount)
	assert.Equal(t, 0, stats.HistoryLength)
}

func TestServiceLoadDocumentsMissingPath(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.LoadDocuments(context.Background(), []string{filepath.Join(ts.dir, "nope")})

	assert.False(t, resp.Success)
	assert.Equal(t, "no documents found or processed", resp.Error)
	assert.Zero(t, resp.DocumentsIndexed)
	require.Len(t, resp.Failed, 1)
	assert.Contains(t, resp.Failed[0].Path, "nope")
}

func TestServiceLoadDocumentsNoPaths(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.LoadDocuments(context.Background(), nil)

	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

// Index a loan rate sheet, ask for the APR, and check the answer is
// grounded in the indexed source.
func TestServiceAskLoanAPR(t *testing.T) {
	ts := newTestService(t)
	path := ts.loadRates(t)

	ts.llm.responses = []string{
		"The personal loan APR ranges from 8.5% to 12.5%.",
		"Uses only provided context: Yes\nExternal knowledge detected: No\nIssues: None",
	}

	resp := ts.svc.Ask(context.Background(), "What is the APR range for personal loans?")

	assert.True(t, resp.Success)
	assert.Equal(t, answer.OutcomeAnswered, resp.Outcome)
	assert.Contains(t, resp.Answer, "8.5")
	assert.Contains(t, resp.Answer, "12.5")
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, path, resp.Sources[0].SourcePath)
	assert.Equal(t, answer.ConfidenceHigh, resp.Confidence)
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Grounded)
}

func TestServiceAskEmptyQuestion(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.Ask(context.Background(), "   ")

	assert.False(t, resp.Success)
	assert.Equal(t, "Please provide a valid question.", resp.Error)
	assert.Equal(t, "Please provide a valid question.", resp.Answer)
	assert.Equal(t, answer.ConfidenceLow, resp.Confidence)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, ts.llm.prompts, "no model call for a blank question")
}

func TestServiceAskRefusesOnEmptyIndex(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.Ask(context.Background(), "What is the wire transfer fee?")

	assert.True(t, resp.Success)
	assert.Equal(t, answer.OutcomeNoEvidence, resp.Outcome)
	assert.Equal(t, answer.RefusalText, resp.Answer)
	assert.Equal(t, answer.ConfidenceLow, resp.Confidence)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, ts.llm.prompts, "no model call without retrieved evidence")
}

func TestServiceAskWithHistory(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)
	ts.llm.responses = []string{
		"The APR starts at 8.5%.",
		"Uses only provided context: Yes",
	}

	turns := []conversation.Turn{{Question: "Do you offer loans?", Answer: "Yes, personal loans."}}
	resp := ts.svc.AskWithHistory(context.Background(), "What is the personal loan APR?", turns)

	assert.True(t, resp.Success)
	require.Equal(t, 2, ts.hist.Len())
	recorded := ts.hist.Turns()
	assert.Equal(t, "Do you offer loans?", recorded[0].Question)
	assert.Equal(t, "What is the personal loan APR?", recorded[1].Question)
}

func TestServiceSearchTruncatesContent(t *testing.T) {
	ts := newTestService(t)
	long := strings.Repeat("personal loan fees and charges apply to every account. ", 12)
	path := ts.writeDoc(t, "fees.md", long+"\n")
	require.True(t, ts.svc.LoadDocuments(context.Background(), []string{path}).Success)

	resp := ts.svc.Search(context.Background(), "loan fees", 3)

	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Count)

	hit := resp.Results[0]
	assert.True(t, strings.HasSuffix(hit.Content, "..."))
	assert.Equal(t, maxSearchContent+3, utf8.RuneCountInString(hit.Content))
	assert.Equal(t, path, hit.Metadata.SourcePath)
	assert.Greater(t, hit.Score, 0.0)
}

func TestServiceSearchShortContentUntouched(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)

	resp := ts.svc.Search(context.Background(), "loan apr", 3)

	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Personal Loan APR: 8.5% - 12.5%", resp.Results[0].Content)
}

func TestServiceSearchValidation(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)

	resp := ts.svc.Search(context.Background(), "", 3)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "query text is empty")

	resp = ts.svc.Search(context.Background(), "loans", 0)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "search limit must be positive")
}

func TestServiceLoanInformation(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)
	ts.llm.responses = []string{
		`{"loan_products":[{"name":"Personal Loan","interest_rate":"8.5% - 12.5%","term_length":"1-5 years","minimum_amount":"$1,000","requirements":["credit check"]}],"fees":[]}`,
	}

	resp := ts.svc.LoanInformation(context.Background(), "")

	assert.True(t, resp.Success)
	assert.False(t, resp.FormatError)
	require.NotNil(t, resp.Structured)
	assert.Contains(t, resp.Structured, "loan_products")
	assert.NotEmpty(t, resp.Sources)
}

func TestServiceStructuredFormatError(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)
	ts.llm.responses = []string{"I could not produce JSON for this."}

	resp := ts.svc.LoanInformation(context.Background(), "personal")

	assert.True(t, resp.Success)
	assert.True(t, resp.FormatError)
	assert.Equal(t, "I could not produce JSON for this.", resp.Raw)
	assert.Nil(t, resp.Structured)
}

func TestServiceStructuredNoEvidence(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.LoanInformation(context.Background(), "")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no relevant documents found")
}

func TestServiceGetStructuredEmptyQuestion(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.GetStructured(context.Background(), " ", `{"fees":[]}`)

	assert.False(t, resp.Success)
	assert.Equal(t, "Please provide a valid question.", resp.Error)
}

func TestServiceDeleteAndList(t *testing.T) {
	ts := newTestService(t)
	rates := ts.writeDoc(t, "rates.md", "Personal Loan APR: 8.5% - 12.5%\n")
	fees := ts.writeDoc(t, "fees.csv", "fee_type,amount\nWire transfer,$25\n")
	require.True(t, ts.svc.LoadDocuments(context.Background(), []string{ts.dir}).Success)

	list := ts.svc.ListDocuments(context.Background())
	assert.True(t, list.Success)
	assert.Equal(t, 2, list.TotalDocuments)
	assert.Equal(t, 2, list.TotalChunks)

	del := ts.svc.DeleteBySource(context.Background(), rates)
	assert.True(t, del.Success)
	assert.Equal(t, 1, del.Deleted)
	assert.Equal(t, rates, del.Source)

	list = ts.svc.ListDocuments(context.Background())
	require.Equal(t, 1, list.TotalDocuments)
	assert.Equal(t, fees, list.Documents[0].SourcePath)
}

func TestServiceDeleteRequiresSource(t *testing.T) {
	ts := newTestService(t)

	resp := ts.svc.DeleteBySource(context.Background(), "  ")

	assert.False(t, resp.Success)
	assert.Equal(t, "source path is required", resp.Error)
}

func TestServiceResetClearsIndexAndHistory(t *testing.T) {
	ts := newTestService(t)
	ts.loadRates(t)
	ts.llm.responses = []string{"The APR starts at 8.5%.", "Uses only provided context: Yes"}
	ts.svc.AskWithHistory(context.Background(), "What is the personal loan APR?", nil)
	require.Equal(t, 1, ts.hist.Len())

	resp := ts.svc.Reset(context.Background())

	assert.True(t, resp.Success)
	assert.Equal(t, 0, ts.hist.Len())
	stats := ts.svc.Stats(context.Background())
	assert.Equal(t, 0, stats.EntryCount)
}

func TestServiceClearHistory(t *testing.T) {
	ts := newTestService(t)
	ts.hist.Append("q", "a")

	resp := ts.svc.ClearHistory()

	assert.True(t, resp.Success)
	assert.Equal(t, 0, ts.hist.Len())
}
