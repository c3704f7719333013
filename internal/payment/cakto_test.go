package payment

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCakto(secret string) *caktoNormalizer {
	return &caktoNormalizer{secret: secret, now: func() time.Time { return time.UnixMilli(1700000000000) }}
}

func TestCaktoNormalize(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    Kind
		billing string
		email   string
		amount  int64
	}{
		{
			name:    "approved with order",
			body:    `{"event":"purchase_approved","customer":{"email":"ana@example.com"},"order":{"id":"ord_1","amount":14990}}`,
			kind:    KindPurchaseApproved,
			billing: "ord_1",
			email:   "ana@example.com",
			amount:  14990,
		},
		{
			name:    "nested data and string price",
			body:    `{"custom_id":"purchase_approved","data":{"customer":{"email":"bia@example.com"},"order":{"id":42,"price":"4990"}}}`,
			kind:    KindPurchaseApproved,
			billing: "42",
			email:   "bia@example.com",
			amount:  4990,
		},
		{
			name:    "payload id and default amount",
			body:    `{"event":"refund","id":"pay_9","customer":{"email":"c@example.com"}}`,
			kind:    KindRefunded,
			billing: "pay_9",
			email:   "c@example.com",
			amount:  DefaultAmount,
		},
		{
			name:    "generated billing id",
			body:    `{"event":"pix_gerado"}`,
			kind:    KindCheckoutCreated,
			billing: "cakto-1700000000000",
			amount:  DefaultAmount,
		},
		{
			name:    "unparseable amount",
			body:    `{"event":"purchase_approved","amount":"abc","order":{"id":"o"}}`,
			kind:    KindPurchaseApproved,
			billing: "o",
			amount:  DefaultAmount,
		},
		{
			name:    "unknown event",
			body:    `{"event":"purchase_refused","order":{"id":"o2"}}`,
			kind:    KindUnknown,
			billing: "o2",
			amount:  DefaultAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := fixedCakto("").Normalize(Delivery{Body: []byte(tt.body), Query: url.Values{}})
			require.NoError(t, err)
			assert.Equal(t, ProviderCakto, ev.Provider)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.billing, ev.BillingID)
			assert.Equal(t, tt.email, ev.Email)
			assert.Equal(t, tt.amount, ev.Amount)
			assert.Equal(t, ev.RawName+":"+ev.BillingID, ev.ID)
		})
	}
}

func TestCaktoMissingEvent(t *testing.T) {
	_, err := fixedCakto("").Normalize(Delivery{Body: []byte(`{"customer":{"email":"a@b.c"}}`), Query: url.Values{}})
	assert.ErrorIs(t, err, ErrMissingEvent)
}

func TestCaktoSecret(t *testing.T) {
	n := fixedCakto("s3cret")
	body := []byte(`{"event":"purchase_approved","secret":"s3cret"}`)

	_, err := n.Normalize(Delivery{Body: body, Query: url.Values{}})
	assert.NoError(t, err)

	_, err = n.Normalize(Delivery{Body: []byte(`{"event":"purchase_approved"}`), Query: url.Values{"secret": {"s3cret"}}})
	assert.NoError(t, err)

	_, err = n.Normalize(Delivery{Body: []byte(`{"event":"purchase_approved","secret":"nope"}`), Query: url.Values{}})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPurchaseApproved, KindOf("billing.paid"))
	assert.Equal(t, KindSubscriptionCanceled, KindOf("customer.subscription.deleted"))
	assert.Equal(t, KindExpired, KindOf("billing.expired"))
	assert.Equal(t, KindCheckoutCreated, KindOf("waiting_payment"))
	assert.Equal(t, KindUnknown, KindOf("something_else"))
}
