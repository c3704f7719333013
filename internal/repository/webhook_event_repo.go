package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dirigia/internal/model"
)

// WebhookEventRepository is the dedup ledger of applied provider events.
type WebhookEventRepository interface {
	Seen(ctx context.Context, provider, eventID string) (bool, error)
	// Record returns false when the event was already recorded.
	Record(ctx context.Context, e *model.WebhookEvent) (bool, error)
}

type webhookEventRepo struct {
	db *sql.DB
}

func NewWebhookEventRepo(db *sql.DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Seen(ctx context.Context, provider, eventID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE provider = $1 AND event_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, provider, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking webhook event %s/%s: %w", provider, eventID, err)
	}
	return exists, nil
}

func (r *webhookEventRepo) Record(ctx context.Context, e *model.WebhookEvent) (bool, error) {
	query := `INSERT INTO webhook_events (provider, event_id, event_name, billing_id)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (provider, event_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, e.Provider, e.EventID, e.EventName, e.BillingID)
	if err != nil {
		return false, fmt.Errorf("recording webhook event %s/%s: %w", e.Provider, e.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording webhook event %s/%s: %w", e.Provider, e.EventID, err)
	}
	return n > 0, nil
}
