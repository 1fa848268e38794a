package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"PawTriage/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// --- Gemini API Configuration ---
const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 30 * time.Second
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents         []GeminiContent   `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string

	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zerolog.Logger
	backoff    time.Duration
}

// NewGeminiClient builds a client from the LLM settings.
func NewGeminiClient(cfg config.LLMConfig, log *zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:     cfg.GeminiAPIKey,
		baseURL:    strings.TrimRight(cfg.GeminiAPIURL, "/"),
		model:      cfg.GeminiModel,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    newLimiter(cfg.RequestsPerMinute),
		log:        log,
		backoff:    initialBackoff,
	}
}

// Generate sends prompt and returns the text of the first candidate. Transport
// errors and non-2xx answers are retried with exponential backoff; a response
// without text is an error.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, gc GenerationConfig) (string, error) {
	if c.apiKey == "" {
		c.log.Error().Msg("GEMINI_API_KEY is not set")
		return "", ErrNotConfigured
	}

	payload := GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: &gc,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			wait := c.backoff * time.Duration(math.Pow(2, float64(i-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		c.log.Debug().Int("attempt", i+1).Str("model", c.model).Msg("Calling Gemini API")

		text, retry, err := c.attempt(ctx, url, payloadBytes)
		if err == nil {
			return text, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
		c.log.Warn().Err(err).Int("attempt", i+1).Msg("Gemini attempt failed")
	}

	return "", fmt.Errorf("failed to call Gemini API after %d attempts: %w", maxRetries, lastErr)
}

// attempt performs one request. retry reports whether the failure is worth
// another attempt.
func (c *GeminiClient) attempt(ctx context.Context, url string, body []byte) (text string, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", true, fmt.Errorf("API returned non-2xx status: %s, Body: %s", resp.Status, string(errBody))
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	var b strings.Builder
	if len(geminiResp.Candidates) > 0 {
		for _, part := range geminiResp.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", false, ErrEmptyResponse
	}
	return b.String(), false, nil
}

// newLimiter spreads requestsPerMinute evenly; zero or less disables limiting.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
}
