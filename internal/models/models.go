package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one normalized conversation entry. Content is either plain text
// or an arbitrary structured value taken verbatim from the host record.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
	ModelID string `json:"model_id,omitempty"`
}

// ModelMap maps a provider-assigned model id to its human-readable name.
type ModelMap map[string]string

// AnalysisRequest carries everything one provider call needs. It is built
// fresh per call and never mutated afterwards.
type AnalysisRequest struct {
	ProviderID      string  `json:"provider_id"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	ReasoningEffort string  `json:"reasoning_effort,omitempty"`
	SystemPrompt    string  `json:"system_prompt"`
	UserContent     string  `json:"user_content"`
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnalysisResult is the provider-neutral outcome of one call. Usage is nil
// when the provider did not report it; nil means unknown, not zero.
type AnalysisResult struct {
	Content string      `json:"content"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Report is one committed analysis. Reports are append-only: re-analysis
// produces a new Report for the same conversation, never an edit.
type Report struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
