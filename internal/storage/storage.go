package storage

import (
	"context"
	"errors"

	"github.com/xaenox/chat-analyzer/internal/models"
)

// ErrStorageUnavailable wraps failures of the underlying store.
var ErrStorageUnavailable = errors.New("report storage unavailable")

// ReportStorage is the append-only, per-conversation report log. Append is the
// only mutation; re-analysis adds a new report rather than editing one.
type ReportStorage interface {
	// Append commits a new report with a fresh id and the current timestamp.
	Append(ctx context.Context, conversationID, title, content string) (*models.Report, error)

	// ListFor returns all reports for the conversation, newest first, ties
	// broken by id. Safe to call concurrently with Append.
	ListFor(ctx context.Context, conversationID string) ([]*models.Report, error)

	Close() error
}
