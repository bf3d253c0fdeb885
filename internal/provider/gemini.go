package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xaenox/chat-analyzer/internal/models"
	"go.uber.org/zap"
)

const defaultGenerateBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GenerateAdapter is the single-turn generate provider family (Gemini wire
// shape). The API has no discrete system role, so system and user content are
// concatenated into one turn, and the credential travels in the request URL
// rather than a header. Usage reporting is optional on this family.
type GenerateAdapter struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGenerateAdapter(name, baseURL string, timeout time.Duration, logger *zap.Logger) *GenerateAdapter {
	if baseURL == "" {
		baseURL = defaultGenerateBaseURL
	}
	return &GenerateAdapter{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (a *GenerateAdapter) Name() string {
	return a.name
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type generateErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *GenerateAdapter) Invoke(ctx context.Context, apiKey string, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	if apiKey == "" {
		return nil, &MissingCredentialError{Provider: a.name}
	}

	body := generateRequest{
		Contents: []generateContent{
			{
				Role:  "user",
				Parts: []generatePart{{Text: req.SystemPrompt + "\n\n" + req.UserContent}},
			},
		},
		GenerationConfig: generationConfig{
			Temperature: req.Temperature,
			TopP:        req.TopP,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error encoding generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		a.baseURL, url.PathEscape(req.Model), url.QueryEscape(apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &TimeoutError{Provider: a.name, Timeout: a.httpClient.Timeout}
		}
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading generate response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		var errBody generateErrorBody
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error.Message != "" {
			msg = errBody.Error.Message
		}
		return nil, &ProviderError{Provider: a.name, StatusCode: resp.StatusCode, Message: msg}
	}

	var genResp generateResponse
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return nil, &MalformedResponseError{Provider: a.name, Detail: err.Error()}
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, &MalformedResponseError{Provider: a.name, Detail: "response has no candidates"}
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	result := &models.AnalysisResult{Content: sb.String()}
	// Usage may be absent on this family; leave it nil rather than zero-filled
	// so callers can tell "unknown" from "free".
	if u := genResp.UsageMetadata; u != nil {
		result.Usage = &models.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}

	a.logger.Debug("generate call succeeded",
		zap.String("provider", a.name),
		zap.String("model", req.Model))

	return result, nil
}
