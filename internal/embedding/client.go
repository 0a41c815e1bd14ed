package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"

	// Dimension is the vector dimension produced by DefaultModel. It must
	// match the dimension the index collection is created with.
	Dimension = 1536
)

// ErrEmbedding classifies failures of the embedding capability. Callers use
// errors.Is against it to distinguish embedding faults from storage faults.
var ErrEmbedding = errors.New("embedding request failed")

// Client wraps the OpenAI API for embedding generation. Credentials are
// injected at construction; the client never reads process environment.
type Client struct {
	api   openai.Client
	model string
}

// NewClient creates an embedding client for the given API key. baseURL and
// model are optional; empty values select the OpenAI default endpoint and
// DefaultModel.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("embedding: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClient(opts...), model: model}, nil
}

// embed performs one embeddings API call for a batch of texts.
func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = toFloat32(data.Embedding)
	}
	return vectors, nil
}

// toFloat32 converts the API's float64 vectors to the float32 form the index
// stores.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
