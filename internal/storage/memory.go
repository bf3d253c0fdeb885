package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/chat-analyzer/internal/models"
)

// MemoryStorage keeps the report log in memory. Used in tests and when
// running without a database.
type MemoryStorage struct {
	mu      sync.RWMutex
	reports map[string][]*models.Report
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reports: make(map[string][]*models.Report),
	}
}

func (s *MemoryStorage) Append(ctx context.Context, conversationID, title, content string) (*models.Report, error) {
	report := &models.Report{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Title:          title,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	s.reports[conversationID] = append(s.reports[conversationID], report)
	s.mu.Unlock()

	return report, nil
}

func (s *MemoryStorage) ListFor(ctx context.Context, conversationID string) ([]*models.Report, error) {
	s.mu.RLock()
	stored := s.reports[conversationID]
	result := make([]*models.Report, len(stored))
	copy(result, stored)
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
