package pubsub

import (
	"context"
	"os"
	"testing"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherRequiresProject(t *testing.T) {
	_, err := NewPublisher(context.Background(), "")
	assert.Error(t, err)
}

func TestPublishWithEmulator(t *testing.T) {
	if os.Getenv("PUBSUB_EMULATOR_HOST") == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	pub, err := NewPublisher(ctx, "test-project")
	require.NoError(t, err)
	defer pub.Close()

	topic, err := pub.client.CreateTopic(ctx, "payment-events")
	require.NoError(t, err)
	sub, err := pub.client.CreateSubscription(ctx, "payment-events-sub", ps.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	msgID, err := pub.Publish(ctx, "payment-events", map[string]string{"type": "payment.status"}, []byte(`{"billing_id":"bill_1"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	got := make(chan *ps.Message, 1)
	go func() {
		_ = sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			m.Ack()
			got <- m
			cancel()
		})
	}()

	select {
	case m := <-got:
		assert.Equal(t, `{"billing_id":"bill_1"}`, string(m.Data))
		assert.Equal(t, "payment.status", m.Attributes["type"])
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
