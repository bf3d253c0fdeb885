package models

// RawConversation is the host application's record for one chat, as returned
// by its message store. Read-only to this module.
type RawConversation struct {
	ID       string            `json:"id"`
	Title    string            `json:"title,omitempty"`
	ModelMap map[string]string `json:"model_map,omitempty"`
	Messages []RawTurn         `json:"messages"`
}

// RawTurn is one entry in the raw message list. A user turn carries content;
// a plain assistant turn carries content plus the answering model; a
// multi-response turn carries per-model sub-answers instead of content.
type RawTurn struct {
	Role      string        `json:"role"`
	Content   any           `json:"content,omitempty"`
	Model     string        `json:"model,omitempty"`
	Responses []RawResponse `json:"responses,omitempty"`
}

// RawResponse is one model's answer inside a multi-response turn. A single
// answer may span several messages; their order is meaningful.
type RawResponse struct {
	Model     string       `json:"model"`
	ModelName string       `json:"model_name,omitempty"`
	Messages  []RawMessage `json:"messages"`
}

type RawMessage struct {
	Role    string `json:"role,omitempty"`
	Content any    `json:"content"`
}
