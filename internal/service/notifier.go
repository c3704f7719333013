package service

import (
	"context"
	"encoding/json"
	"time"

	"dirigia/internal/pubsub"

	"github.com/rs/zerolog"
)

// Change types published on the payment topic.
const (
	ChangePayment = "payment.status"
	ChangePlan    = "profile.plan"
)

// Change is one applied payment status or plan transition.
type Change struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	BillingID string    `json:"billing_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Plan      string    `json:"plan,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier fans applied changes out to downstream consumers. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

type pubsubNotifier struct {
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewNotifier publishes to topic. A nil publisher or empty topic yields a notifier that
// only logs.
func NewNotifier(publisher pubsub.Publisher, topic string, logger zerolog.Logger) Notifier {
	return &pubsubNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "Notifier").Logger(),
	}
}

func (n *pubsubNotifier) Notify(ctx context.Context, c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	if n.publisher == nil || n.topic == "" {
		n.logger.Debug().Str("type", c.Type).Str("billing_id", c.BillingID).Str("user_id", c.UserID).Msg("Change applied")
		return
	}
	data, err := json.Marshal(c)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to marshal change")
		return
	}
	attrs := map[string]string{"type": c.Type}
	if _, err := n.publisher.Publish(ctx, n.topic, attrs, data); err != nil {
		n.logger.Error().Err(err).Str("topic", n.topic).Str("type", c.Type).Msg("Failed to publish change")
	}
}
