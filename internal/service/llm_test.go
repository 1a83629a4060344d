package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLLMClient(baseURL string) *LLMClient {
	return NewLLMClient(&config.OpenAIConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		ChatModel: "gpt-4o-mini",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestComplete_Success(t *testing.T) {
	var gotBody struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Employees accrue leave monthly."}},
			},
			"usage": map[string]any{"total_tokens": 87},
		})
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	completion, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "prompt text"},
	}, GenerateOptions{Temperature: 0.2, MaxTokens: 1200})
	require.NoError(t, err)

	assert.Equal(t, "Employees accrue leave monthly.", completion.Text)
	assert.Equal(t, 87, completion.TokensUsed)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	assert.Equal(t, 1200, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "system", Content: "prompt"}}, GenerateOptions{})
	require.Error(t, err)

	var generationErr *models.GenerationError
	assert.ErrorAs(t, err, &generationErr)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "system", Content: "prompt"}}, GenerateOptions{})
	require.Error(t, err)

	var generationErr *models.GenerationError
	assert.ErrorAs(t, err, &generationErr)
}
