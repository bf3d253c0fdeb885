package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/chat-analyzer/internal/history"
	"github.com/xaenox/chat-analyzer/internal/models"
)

// ErrInsufficientData means the current round has no assistant answers, so
// there is nothing new to analyze.
var ErrInsufficientData = errors.New("no new answers to analyze")

const questionFallback = "Original question not found."

// Payload is the rendered input for one analysis call.
type Payload struct {
	UserContent      string
	LastUserQuestion string
}

// Assemble renders the current round into the analysis payload. Only the last
// user question and the answers that followed it are included; earlier rounds
// reach the model solely through previousSummary, which keeps the payload
// bounded as the conversation grows.
func Assemble(h *history.NormalizedHistory, previousSummary string) (*Payload, error) {
	lastUser := -1
	for i, m := range h.Messages {
		if m.Role == models.RoleUser {
			lastUser = i
		}
	}

	question := questionFallback
	if lastUser >= 0 {
		if q := stringifyContent(h.Messages[lastUser].Content); q != "" {
			question = q
		}
	}

	var answers []models.Message
	for _, m := range h.Messages[lastUser+1:] {
		if m.Role == models.RoleAssistant {
			answers = append(answers, m)
		}
	}
	if len(answers) == 0 {
		return nil, ErrInsufficientData
	}

	var sb strings.Builder
	sb.WriteString("Known model ids and their official names; prefer the official names in your report:\n")
	for _, id := range sortedKeys(h.ModelMap) {
		fmt.Fprintf(&sb, "- %s: %s\n", id, h.ModelMap[id])
	}

	sb.WriteString("\n--- Original question ---\n")
	sb.WriteString(question)
	sb.WriteString("\n\n--- Model answers ---\n")
	for i, m := range answers {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		id := m.ModelID
		if id == "" {
			id = "N/A"
		}
		fmt.Fprintf(&sb, "--- Model answer (ID: %s) ---\n%s", id, stringifyContent(m.Content))
	}

	if previousSummary != "" {
		sb.WriteString("\n\n--- Previous report ---\n")
		sb.WriteString(previousSummary)
	}

	return &Payload{
		UserContent:      sb.String(),
		LastUserQuestion: question,
	}, nil
}

// stringifyContent renders message content for transcript inclusion. Plain
// strings pass through; structured values are pretty-printed so the rendering
// is deterministic; nil becomes the empty string, never the literal "null".
func stringifyContent(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}

func sortedKeys(m models.ModelMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
