package model

import "time"

// WebhookEvent is the dedup ledger entry of an applied provider event.
type WebhookEvent struct {
	Provider  string    `db:"provider"`
	EventID   string    `db:"event_id"`
	EventName string    `db:"event_name"`
	BillingID string    `db:"billing_id"`
	CreatedAt time.Time `db:"created_at"`
}
