package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mostashar/internal/models"
	"mostashar/pkg/config"

	"go.uber.org/zap"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Completion struct {
	Text       string
	TokensUsed int
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// LLMClient talks to an OpenAI-compatible /chat/completions endpoint.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewLLMClient(cfg *config.OpenAIConfig, logger *zap.Logger) *LLMClient {
	return &LLMClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.ChatModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Complete sends the prompt messages and returns the generated text with
// token usage. All failure modes surface as GenerationError; the caller
// decides how to degrade.
func (c *LLMClient) Complete(ctx context.Context, messages []Message, opts GenerateOptions) (*Completion, error) {
	reqBody := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
	}{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &models.GenerationError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, &models.GenerationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.GenerationError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GenerationError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.GenerationError{Err: fmt.Errorf("chat completion failed: %s: %s", resp.Status, string(payload))}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &models.GenerationError{Err: fmt.Errorf("decode completion response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return nil, &models.GenerationError{Err: fmt.Errorf("no choices in completion response")}
	}

	c.logger.Debug("Chat completion finished",
		zap.Int("tokens_used", out.Usage.TotalTokens),
	)

	return &Completion{
		Text:       out.Choices[0].Message.Content,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}
