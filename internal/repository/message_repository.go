package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/practicedesk/secretary/internal/domain"
)

const messageColumns = `id, recipient, body, status, gateway_message_id, error, variant, created_at, updated_at`

// MessageRepository handles database operations for the outbound message log.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, recipient, body, variant string) (domain.MessageRecord, error) {
	query := `
		INSERT INTO messages (id, recipient, body, status, variant, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, query, id, recipient, body, variant); err != nil {
		return domain.MessageRecord{}, fmt.Errorf("failed to create message: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (domain.MessageRecord, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	var rec domain.MessageRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MessageRecord{}, &domain.NotFoundError{Resource: "message", ID: id}
		}
		return domain.MessageRecord{}, fmt.Errorf("failed to get message: %w", err)
	}

	return rec, nil
}

func (r *MessageRepository) MarkAsSent(ctx context.Context, id, gatewayMessageID string) error {
	query := `
		UPDATE messages
		SET status = 'sent', gateway_message_id = NULLIF(?, ''), error = NULL, updated_at = ?
		WHERE id = ?
	`

	return r.exec(ctx, "mark message as sent", id, query, gatewayMessageID, time.Now().UTC(), id)
}

func (r *MessageRepository) MarkAsFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE messages
		SET status = 'failed', error = ?, updated_at = ?
		WHERE id = ?
	`

	return r.exec(ctx, "mark message as failed", id, query, reason, time.Now().UTC(), id)
}

func (r *MessageRepository) MarkAsPending(ctx context.Context, id string) error {
	query := `
		UPDATE messages
		SET status = 'pending', gateway_message_id = NULL, error = NULL, updated_at = ?
		WHERE id = ?
	`

	return r.exec(ctx, "reset message", id, query, time.Now().UTC(), id)
}

func (r *MessageRepository) exec(ctx context.Context, action, id, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return &domain.NotFoundError{Resource: "message", ID: id}
	}

	return nil
}

func (r *MessageRepository) GetAll(
	ctx context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.MessageRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	where := ""
	args := []any{}
	if status != nil {
		where = "WHERE status = ?"
		args = append(args, *status)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM messages "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM messages ` + where + ` ORDER BY seq DESC LIMIT ? OFFSET ?`

	records := []domain.MessageRecord{}
	if err := r.db.SelectContext(ctx, &records, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}

	return records, totalCount, nil
}

func (r *MessageRepository) GetStats(ctx context.Context) (domain.MessageStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)    AS sent,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)  AS failed
		FROM messages
	`

	var stats struct {
		Pending int64 `db:"pending"`
		Sent    int64 `db:"sent"`
		Failed  int64 `db:"failed"`
	}

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return domain.MessageStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	return domain.MessageStats{Pending: stats.Pending, Sent: stats.Sent, Failed: stats.Failed}, nil
}
