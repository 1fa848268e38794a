package geminiservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"PawTriage/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, content string, captured *map[string]any) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	return NewOpenAIClient(config.LLMConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1",
	}, &logger)
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	c := newTestOpenAI(t, "POSSIBLE CONDITIONS:\nGastritis - Mild", &body)

	text, err := c.Generate(context.Background(), "my cat vomits", clinicalConfig)
	require.NoError(t, err)
	assert.Equal(t, "POSSIBLE CONDITIONS:\nGastritis - Mild", text)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 1024, body["max_tokens"])
	assert.InDelta(t, 0.4, body["temperature"], 0.001)
}

func TestOpenAIEmptyContentIsError(t *testing.T) {
	c := newTestOpenAI(t, "   ", nil)

	_, err := c.Generate(context.Background(), "prompt", genericConfig)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIMissingKey(t *testing.T) {
	logger := zerolog.Nop()
	c := NewOpenAIClient(config.LLMConfig{}, &logger)

	_, err := c.Generate(context.Background(), "prompt", genericConfig)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
