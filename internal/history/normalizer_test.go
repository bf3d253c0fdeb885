package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/chat-analyzer/internal/models"
)

func TestNormalizeExpandsMultiResponseTurns(t *testing.T) {
	conv := &models.RawConversation{
		ID: "c1",
		Messages: []models.RawTurn{
			{Role: "user", Content: "What is 2+2?"},
			{
				Role: "assistant",
				Responses: []models.RawResponse{
					{
						Model:     "modelA",
						ModelName: "Model A",
						Messages:  []models.RawMessage{{Content: "4"}},
					},
					{
						Model:     "modelB",
						ModelName: "Model B",
						Messages:  []models.RawMessage{{Content: "Four"}, {Content: "(spelled out)"}},
					},
				},
			},
			{Role: "assistant", Content: "follow-up", Model: "modelC"},
		},
	}

	h, err := Normalize(conv)
	require.NoError(t, err)

	require.Len(t, h.Messages, 5)
	assert.Equal(t, models.RoleUser, h.Messages[0].Role)

	// One assistant message per sub-answer message plus the plain turn,
	// inner order preserved.
	assert.Equal(t, "modelA", h.Messages[1].ModelID)
	assert.Equal(t, "4", h.Messages[1].Content)
	assert.Equal(t, "modelB", h.Messages[2].ModelID)
	assert.Equal(t, "Four", h.Messages[2].Content)
	assert.Equal(t, "modelB", h.Messages[3].ModelID)
	assert.Equal(t, "(spelled out)", h.Messages[3].Content)
	assert.Equal(t, "modelC", h.Messages[4].ModelID)

	assert.Equal(t, models.ModelMap{"modelA": "Model A", "modelB": "Model B"}, h.ModelMap)
}

func TestNormalizeCountsEveryAssistantMessage(t *testing.T) {
	conv := &models.RawConversation{
		Messages: []models.RawTurn{
			{Role: "user", Content: "q1"},
			{Role: "assistant", Content: "a1", Model: "m1"},
			{Role: "user", Content: "q2"},
			{
				Role: "assistant",
				Responses: []models.RawResponse{
					{Model: "m1", Messages: []models.RawMessage{{Content: "a"}, {Content: "b"}}},
					{Model: "m2", Messages: []models.RawMessage{{Content: "c"}}},
				},
			},
		},
	}

	h, err := Normalize(conv)
	require.NoError(t, err)

	assistants := 0
	for _, m := range h.Messages {
		if m.Role == models.RoleAssistant {
			assistants++
		}
	}
	// 1 plain turn + 3 sub-answer messages, none dropped or duplicated.
	assert.Equal(t, 4, assistants)
}

func TestNormalizeFirstSeenModelNameWins(t *testing.T) {
	conv := &models.RawConversation{
		ModelMap: map[string]string{"m1": "Header Name"},
		Messages: []models.RawTurn{
			{Role: "user", Content: "q"},
			{
				Role: "assistant",
				Responses: []models.RawResponse{
					{Model: "m1", ModelName: "Later Name", Messages: []models.RawMessage{{Content: "a"}}},
				},
			},
		},
	}

	h, err := Normalize(conv)
	require.NoError(t, err)
	assert.Equal(t, "Header Name", h.ModelMap["m1"])
}

func TestNormalizeMissingRecord(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Normalize(&models.RawConversation{ID: "c1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	conv := models.RawConversation{
		Messages: []models.RawTurn{{Role: "user", Content: "hello"}},
	}
	data, err := json.Marshal(conv)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c1.json"), data, 0o644))

	src := NewFileSource(dir)

	got, err := src.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	require.Len(t, got.Messages, 1)

	_, err = src.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.GetConversation(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidID)
}
