package geminiservice

import (
	"context"
	"fmt"
	"strings"

	"PawTriage/internal/config"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAIClient sends prompts to the chat completion API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	hasKey  bool
	limiter *rate.Limiter
	log     *zerolog.Logger
}

// NewOpenAIClient builds a client from the LLM settings. OpenAIBaseURL points
// it at a compatible endpoint.
func NewOpenAIClient(cfg config.LLMConfig, log *zerolog.Logger) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		hasKey:  cfg.OpenAIAPIKey != "",
		limiter: newLimiter(cfg.RequestsPerMinute),
		log:     log,
	}
}

// Generate returns the content of the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, gc GenerationConfig) (string, error) {
	if !c.hasKey {
		c.log.Error().Msg("OPENAI_API_KEY is not set")
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	c.log.Debug().Str("model", c.model).Msg("Calling OpenAI chat completion")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: gc.Temperature,
		TopP:        gc.TopP,
		MaxTokens:   gc.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
