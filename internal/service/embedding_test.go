package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func embeddingResponse(dimension int) []byte {
	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = 0.01
	}
	payload, _ := json.Marshal(map[string]any{
		"data": []map[string]any{{"embedding": vector}},
	})
	return payload
}

func newTestEmbeddingClient(baseURL string) *EmbeddingClient {
	return NewEmbeddingClient(&config.OpenAIConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        5 * time.Second,
	}, zap.NewNop())
}

func TestEmbed_Success(t *testing.T) {
	var gotBody struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(embeddingResponse(EmbeddingDimension))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server.URL)
	vector, err := client.Embed(context.Background(), "annual leave policy")
	require.NoError(t, err)

	assert.Len(t, vector, EmbeddingDimension)
	assert.Equal(t, "annual leave policy", gotBody.Input)
	assert.Equal(t, "text-embedding-3-small", gotBody.Model)
}

func TestEmbedQuery_AddsDomainPrefix(t *testing.T) {
	var inputs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		inputs = append(inputs, body.Input)
		w.Write(embeddingResponse(EmbeddingDimension))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server.URL)

	_, err := client.EmbedQuery(context.Background(), "annual leave", models.LanguageEnglish)
	require.NoError(t, err)
	_, err = client.EmbedQuery(context.Background(), "الإجازة السنوية", models.LanguageArabic)
	require.NoError(t, err)

	require.Len(t, inputs, 2)
	assert.Equal(t, queryPrefixEn+"annual leave", inputs[0])
	assert.Equal(t, queryPrefixAr+"الإجازة السنوية", inputs[1])
}

func TestEmbed_RetriesOnRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(embeddingResponse(EmbeddingDimension))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server.URL)
	vector, err := client.Embed(context.Background(), "annual leave")
	require.NoError(t, err)

	assert.Len(t, vector, EmbeddingDimension)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestEmbed_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server.URL)
	_, err := client.Embed(context.Background(), "annual leave")
	require.Error(t, err)

	var embeddingErr *models.EmbeddingError
	assert.ErrorAs(t, err, &embeddingErr)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestEmbed_RejectsWrongDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(embeddingResponse(8))
	}))
	defer server.Close()

	client := newTestEmbeddingClient(server.URL)
	_, err := client.Embed(context.Background(), "annual leave")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}
