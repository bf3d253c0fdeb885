package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/xaenox/chat-analyzer/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrStorageUnavailable, err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: connecting to the database: %v", ErrStorageUnavailable, err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("%w: executing migrations: %v", ErrStorageUnavailable, err)
	}

	s.logger.Info("report schema ready")
	return nil
}

func (s *PostgresStorage) Append(ctx context.Context, conversationID, title, content string) (*models.Report, error) {
	report := &models.Report{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Title:          title,
		Content:        content,
	}

	query := `
		INSERT INTO reports (id, conversation_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		report.ID,
		report.ConversationID,
		report.Title,
		report.Content,
	).Scan(&report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting report: %v", ErrStorageUnavailable, err)
	}

	return report, nil
}

func (s *PostgresStorage) ListFor(ctx context.Context, conversationID string) ([]*models.Report, error) {
	query := `
		SELECT id, conversation_id, title, content, created_at
		FROM reports
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reports: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		report := &models.Report{}
		err := rows.Scan(
			&report.ID,
			&report.ConversationID,
			&report.Title,
			&report.Content,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning report: %v", ErrStorageUnavailable, err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading reports: %v", ErrStorageUnavailable, err)
	}

	return reports, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
