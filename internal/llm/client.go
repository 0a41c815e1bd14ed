// Package llm provides the language generation capability: thin, retrying
// wrappers over the OpenAI chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature keeps generation close to the supplied context.
	DefaultTemperature = 0.1
)

// ErrGeneration classifies failures of the generation capability.
var ErrGeneration = errors.New("generation request failed")

// Client issues chat completions with a fixed model and temperature.
// Credentials are injected at construction; no ambient configuration.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
}

// NewClient creates a generation client. baseURL and model are optional;
// a negative temperature selects DefaultTemperature.
func NewClient(apiKey, baseURL, model string, temperature float64) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultModel
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}, nil
}

// Generate produces free-form text for the given system and user prompts.
// An empty system prompt is omitted from the request.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, false)
}

// GenerateJSON produces a response constrained to a JSON object. The model
// decides the shape; callers parse and must handle malformed output.
func (c *Client) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, true)
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	var out string
	operation := func() error {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("no choices returned"))
		}
		out = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 45 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return out, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}
