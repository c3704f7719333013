package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Postgres notification channels fed by the migration triggers.
const (
	ChannelPaymentStatus = "payment_status"
	ChannelProfilePlan   = "profile_plan"
)

// PaymentUpdate is the payload of a payment_status notification and the message
// sent to websocket clients.
type PaymentUpdate struct {
	Type      string     `json:"type"`
	BillingID string     `json:"billing_id"`
	UserID    string     `json:"user_id,omitempty"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// PlanUpdate is the payload of a profile_plan notification.
type PlanUpdate struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

// Route maps a notification to a hub topic and the message to deliver.
func Route(channel, payload string) (string, []byte, error) {
	switch channel {
	case ChannelPaymentStatus:
		var u PaymentUpdate
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			return "", nil, fmt.Errorf("decoding %s payload: %w", channel, err)
		}
		u.Type = "payment"
		msg, err := json.Marshal(u)
		return PaymentTopic(u.BillingID), msg, err
	case ChannelProfilePlan:
		var u PlanUpdate
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			return "", nil, fmt.Errorf("decoding %s payload: %w", channel, err)
		}
		u.Type = "plan"
		msg, err := json.Marshal(u)
		return PlanTopic(u.UserID), msg, err
	}
	return "", nil, fmt.Errorf("unknown channel %q", channel)
}

// Listener forwards Postgres notifications to a Hub over a dedicated connection.
type Listener struct {
	dsn    string
	hub    *Hub
	logger zerolog.Logger
}

func NewListener(dsn string, hub *Hub, logger zerolog.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, logger: logger.With().Str("service", "RealtimeListener").Logger()}
}

const (
	minRetry = time.Second
	maxRetry = 30 * time.Second
)

// retry is the reconnect delay. It doubles after each failed attempt up to maxRetry
// and drops back to minRetry once a connection gets as far as LISTEN.
type retry struct {
	d time.Duration
}

func (r *retry) next() time.Duration {
	d := max(r.d, minRetry)
	r.d = min(d*2, maxRetry)
	return d
}

func (r *retry) reset() { r.d = 0 }

// Run listens until ctx is done, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) error {
	var delay retry
	for {
		err := l.listen(ctx, delay.reset)
		if ctx.Err() != nil {
			return nil
		}
		wait := delay.next()
		l.logger.Error().Err(err).Dur("retry_in", wait).Msg("Notification listener stopped")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *Listener) listen(ctx context.Context, listening func()) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connecting listener: %w", err)
	}
	defer func() {
		_ = conn.Close(context.Background())
	}()

	for _, ch := range []string{ChannelPaymentStatus, ChannelProfilePlan} {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return fmt.Errorf("listening on %s: %w", ch, err)
		}
	}
	listening()
	l.logger.Info().Msg("Listening for payment and plan notifications")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}
		topic, msg, err := Route(n.Channel, n.Payload)
		if err != nil {
			l.logger.Warn().Err(err).Msg("Dropping notification")
			continue
		}
		delivered := l.hub.Publish(topic, msg)
		l.logger.Debug().Str("topic", topic).Int("delivered", delivered).Msg("Notification forwarded")
	}
}
