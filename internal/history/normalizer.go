package history

import (
	"github.com/xaenox/chat-analyzer/internal/models"
)

// NormalizedHistory is the flattened, role-tagged view of one conversation.
type NormalizedHistory struct {
	Messages []models.Message
	ModelMap models.ModelMap
}

// Normalize flattens the host record into an ordered message sequence and
// collects the model id to display name table. Every non-user message is
// stamped with its model id. The first mapping seen for an id wins; ids are
// stable per model, so later duplicates carry no new information.
func Normalize(conv *models.RawConversation) (*NormalizedHistory, error) {
	if conv == nil || conv.Messages == nil {
		return nil, ErrNotFound
	}

	h := &NormalizedHistory{ModelMap: models.ModelMap{}}
	for id, name := range conv.ModelMap {
		if id != "" && name != "" {
			h.ModelMap[id] = name
		}
	}

	for _, turn := range conv.Messages {
		switch {
		case turn.Role == models.RoleUser:
			h.Messages = append(h.Messages, models.Message{
				Role:    models.RoleUser,
				Content: turn.Content,
			})

		case len(turn.Responses) > 0:
			// Multi-response turn: one message per sub-answer message,
			// inner order preserved.
			for _, resp := range turn.Responses {
				if resp.Model != "" && resp.ModelName != "" {
					if _, seen := h.ModelMap[resp.Model]; !seen {
						h.ModelMap[resp.Model] = resp.ModelName
					}
				}
				for _, m := range resp.Messages {
					h.Messages = append(h.Messages, models.Message{
						Role:    models.RoleAssistant,
						Content: m.Content,
						ModelID: resp.Model,
					})
				}
			}

		default:
			h.Messages = append(h.Messages, models.Message{
				Role:    models.RoleAssistant,
				Content: turn.Content,
				ModelID: turn.Model,
			})
		}
	}

	return h, nil
}
