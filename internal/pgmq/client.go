// Package pgmq is a thin client for the pgmq Postgres extension.
package pgmq

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Queue is the set of queue operations the workers depend on.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte, delay time.Duration) (int64, error)
	ReadWithPoll(ctx context.Context, queue string, visibility time.Duration, pollTimeout time.Duration, maxMessages int) ([]*Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// Client wraps a Postgres DB for pgmq queue operations.
type Client struct {
	db *sql.DB
}

// New returns a new PGMQ client backed by the given DB connection.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// Message is a single pgmq message. ReadCount counts deliveries including this one.
type Message struct {
	ID        int64
	ReadCount int
	Data      []byte // raw JSON payload
}

// Send pushes a JSON payload, invisible to readers until delay has passed.
func (c *Client) Send(ctx context.Context, queue string, payload []byte, delay time.Duration) (int64, error) {
	var id int64
	query := "SELECT pgmq.send($1, $2::jsonb, $3)"
	if err := c.db.QueryRowContext(ctx, query, queue, string(payload), int(delay/time.Second)).Scan(&id); err != nil {
		return 0, fmt.Errorf("pgmq send to %s failed: %w", queue, err)
	}
	return id, nil
}

// ReadWithPoll reads up to maxMessages, blocking up to pollTimeout when the queue is empty.
// Read messages stay hidden for visibility.
func (c *Client) ReadWithPoll(ctx context.Context, queue string, visibility, pollTimeout time.Duration, maxMessages int) ([]*Message, error) {
	query := "SELECT msg_id, read_ct, message FROM pgmq.read_with_poll($1, $2, $3, $4)"
	rows, err := c.db.QueryContext(ctx, query, queue, int(visibility/time.Second), maxMessages, int(pollTimeout/time.Second))
	if err != nil {
		return nil, fmt.Errorf("pgmq read_with_poll on %s failed: %w", queue, err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ReadCount, &m.Data); err != nil {
			return nil, fmt.Errorf("pgmq read scan failed: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmq read rows error: %w", err)
	}
	return msgs, nil
}

// Delete removes messages by their IDs from the specified queue.
func (c *Client) Delete(ctx context.Context, queue string, msgIDs []int64) error {
	if len(msgIDs) == 0 {
		return nil
	}
	query := "SELECT pgmq.delete($1, $2::bigint[])"
	if _, err := c.db.ExecContext(ctx, query, queue, pq.Array(msgIDs)); err != nil {
		return fmt.Errorf("pgmq delete on %s failed: %w", queue, err)
	}
	return nil
}
