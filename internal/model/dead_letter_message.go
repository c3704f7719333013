package model

import "time"

// DeadLetterMessage is a queue job that exhausted its attempts.
type DeadLetterMessage struct {
	ID        string    `db:"id"`
	QueueName string    `db:"queue_name"`
	MessageID string    `db:"message_id"`
	Payload   string    `db:"payload"` // JSON
	Reason    *string   `db:"reason"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
