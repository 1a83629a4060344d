package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"go.uber.org/zap"
)

// EmbeddingDimension is the fixed dimensionality of all stored vectors.
const EmbeddingDimension = 1536

// Query embeddings are biased toward the target domain with a fixed
// language-specific prefix before calling the model.
const (
	queryPrefixEn = "HR and labor-law query: "
	queryPrefixAr = "استفسار عن الموارد البشرية ونظام العمل: "
)

// EmbeddingClient talks to an OpenAI-compatible /embeddings endpoint.
type EmbeddingClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

func NewEmbeddingClient(cfg *config.OpenAIConfig, logger *zap.Logger) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.EmbeddingModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: 3,
		logger:     logger,
	}
}

func (c *EmbeddingClient) Dimension() int { return EmbeddingDimension }

// Embed returns the embedding vector for a chunk or other raw text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embed(ctx, text)
	if err != nil {
		return nil, &models.EmbeddingError{Op: "embed", Err: err}
	}
	return vector, nil
}

// EmbedQuery embeds a user query after prefixing the language-specific domain
// context string.
func (c *EmbeddingClient) EmbedQuery(ctx context.Context, query string, language models.Language) ([]float32, error) {
	prefix := queryPrefixEn
	if language == models.LanguageArabic {
		prefix = queryPrefixAr
	}
	vector, err := c.embed(ctx, prefix+query)
	if err != nil {
		return nil, &models.EmbeddingError{Op: "embed query", Err: err}
	}
	return vector, nil
}

func (c *EmbeddingClient) embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}{Input: text, Model: c.model}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("embeddings request failed: %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embeddings request failed: %s: %s", resp.Status, string(payload))
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}

		var out struct {
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("decode embeddings response: %w", err)
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		if len(out.Data[0].Embedding) != EmbeddingDimension {
			return nil, fmt.Errorf("unexpected embedding dimension %d", len(out.Data[0].Embedding))
		}

		return out.Data[0].Embedding, nil
	}

	return nil, lastErr
}

// retryDelay is exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
