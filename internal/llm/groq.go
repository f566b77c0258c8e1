package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"finassist/internal/config"
)

// GenerationError reports a failed call to the generation service, carrying
// the upstream HTTP status so the API layer can map it to a response code.
// UpstreamStatus is 0 when the service was unreachable.
type GenerationError struct {
	UpstreamStatus int
	Err            error
}

func (e *GenerationError) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("generation service returned status %d: %v", e.UpstreamStatus, e.Err)
	}
	return fmt.Sprintf("generation service unreachable: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Groq is a chat completion client for Groq's OpenAI-compatible API.
type Groq struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGroq creates a Groq client from configuration.
func NewGroq(cfg *config.LLMConfig) (*Groq, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is not set")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	return &Groq{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate sends the message list to the generation service and returns the
// assistant's completion. Failures are reported as *GenerationError.
func (g *Groq) Generate(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: &g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", wrapAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &GenerationError{Err: fmt.Errorf("empty completion in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{UpstreamStatus: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &GenerationError{UpstreamStatus: reqErr.HTTPStatusCode, Err: err}
	}
	return &GenerationError{Err: err}
}
