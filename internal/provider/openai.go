package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/chat-analyzer/internal/models"
	"go.uber.org/zap"
)

// ChatCompletionAdapter is the chat-completion provider family: a two-message
// system/user exchange against a /chat/completions endpoint with a bearer
// credential. OpenAI and xAI share this wire shape and differ only in base URL.
type ChatCompletionAdapter struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewChatCompletionAdapter(name, baseURL string, timeout time.Duration, logger *zap.Logger) *ChatCompletionAdapter {
	return &ChatCompletionAdapter{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (a *ChatCompletionAdapter) Name() string {
	return a.name
}

func (a *ChatCompletionAdapter) Invoke(ctx context.Context, apiKey string, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	if apiKey == "" {
		return nil, &MissingCredentialError{Provider: a.name}
	}

	cfg := openai.DefaultConfig(apiKey)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	cfg.HTTPClient = a.httpClient
	client := openai.NewClientWithConfig(cfg)

	ccr := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserContent},
		},
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
	}
	if req.ReasoningEffort != "" {
		ccr.ReasoningEffort = req.ReasoningEffort
	}

	resp, err := client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return nil, a.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &MalformedResponseError{Provider: a.name, Detail: "response has no choices"}
	}

	result := &models.AnalysisResult{Content: resp.Choices[0].Message.Content}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 || resp.Usage.TotalTokens > 0 {
		result.Usage = &models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	a.logger.Debug("chat completion succeeded",
		zap.String("provider", a.name),
		zap.String("model", req.Model))

	return result, nil
}

func (a *ChatCompletionAdapter) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   a.name,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   a.name,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &TimeoutError{Provider: a.name, Timeout: a.httpClient.Timeout}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("chat completion request failed: %w", err)
}
