package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dirigia/internal/model"
)

type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	db *sql.DB
}

func NewDLQRepository(db *sql.DB) DLQRepository {
	return &dlqRepository{db: db}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	query := `
        INSERT INTO dead_letter_messages (queue_name, message_id, payload, reason, status)
        VALUES ($1, $2, $3::jsonb, $4, $5)
    `
	status := message.Status
	if status == "" {
		status = "unprocessed"
	}
	_, err := r.db.ExecContext(
		ctx,
		query,
		message.QueueName,
		message.MessageID,
		message.Payload,
		message.Reason,
		status,
	)
	if err != nil {
		return fmt.Errorf("inserting dead letter %s/%s: %w", message.QueueName, message.MessageID, err)
	}
	return nil
}
