package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaenox/chat-analyzer/internal/models"
)

var (
	// ErrNotFound means the conversation record or its message list is absent.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidID means no conversation id could be determined.
	ErrInvalidID = errors.New("no conversation id")
)

// Source is the host application's message store, queried by conversation id.
type Source interface {
	GetConversation(ctx context.Context, conversationID string) (*models.RawConversation, error)
}

// FileSource reads conversation records exported by the host application,
// one JSON file per conversation id.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) GetConversation(ctx context.Context, conversationID string) (*models.RawConversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidID
	}

	path := filepath.Join(s.dir, conversationID+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading conversation file: %w", err)
	}

	var conv models.RawConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("error parsing conversation file: %w", err)
	}
	if conv.ID == "" {
		conv.ID = conversationID
	}
	return &conv, nil
}
