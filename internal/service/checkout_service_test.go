package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/model"
	"dirigia/internal/payment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture(pix *fakeAbacate, card *fakeCard) (*memDB, *fakeQueue, CheckoutService) {
	db := newMemDB()
	q := &fakeQueue{}
	svc := NewCheckoutService(pix, card, fakePayments{db}, q, CheckoutOptions{
		Prices:         map[string]int64{"monthly": 4990, "annual": 14990},
		AppBaseURL:     "https://app.example.com",
		ReconcileQueue: "payment_reconcile",
		ReconcileDelay: time.Minute,
	}, zerolog.Nop())
	return db, q, svc
}

func TestPixCheckoutStoresPendingAndEnqueues(t *testing.T) {
	pix := &fakeAbacate{billing: &payment.Billing{ID: "bill_1", URL: "https://abacatepay.com/pay/bill_1"}}
	db, q, svc := newCheckoutFixture(pix, nil)

	res, err := svc.Create(context.Background(), CheckoutRequest{
		UserID: "u1", Email: "ana@example.com", Plan: "annual", Method: model.MethodPix,
		Customer: &CustomerData{Name: "Ana Lima", Phone: "11999998888", CPF: "12345678909"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://abacatepay.com/pay/bill_1", res.BillingURL)
	assert.Equal(t, "bill_1", res.BillingID)
	assert.Equal(t, payment.ProviderAbacatePay, res.Provider)

	require.Len(t, pix.created, 1)
	sent := pix.created[0]
	assert.Equal(t, "ONE_TIME", sent.Frequency)
	assert.Equal(t, []string{"PIX"}, sent.Methods)
	assert.Equal(t, "u1", sent.Products[0].ExternalID)
	assert.Equal(t, int64(14990), sent.Products[0].Price)
	assert.Contains(t, sent.ReturnURL, "user=u1")
	assert.Equal(t, "12345678909", sent.Customer.TaxID)

	require.Contains(t, db.payments, "bill_1")
	assert.Equal(t, model.PaymentPending, db.payments["bill_1"].Status)
	assert.Equal(t, "annual", db.payments["bill_1"].Plan)

	require.Len(t, q.sent, 1)
	assert.Equal(t, "payment_reconcile", q.sent[0].queue)
	assert.Equal(t, time.Minute, q.sent[0].delay)
	var job ReconcileJob
	require.NoError(t, json.Unmarshal(q.sent[0].payload, &job))
	assert.Equal(t, ReconcileJob{BillingID: "bill_1", UserID: "u1", Attempt: 1}, job)
}

func TestPixCheckoutNeedsCustomer(t *testing.T) {
	_, _, svc := newCheckoutFixture(&fakeAbacate{}, nil)

	_, err := svc.Create(context.Background(), CheckoutRequest{UserID: "u1", Plan: "monthly", Method: model.MethodPix})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestPixCheckoutProviderFailure(t *testing.T) {
	db, q, svc := newCheckoutFixture(&fakeAbacate{err: errors.New("boom")}, nil)

	_, err := svc.Create(context.Background(), CheckoutRequest{
		UserID: "u1", Plan: "monthly", Method: model.MethodPix,
		Customer: &CustomerData{Name: "Ana", Phone: "11999998888", CPF: "12345678909"},
	})
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Empty(t, db.payments)
	assert.Empty(t, q.sent)
}

func TestCardCheckoutHasNoEagerRow(t *testing.T) {
	card := &fakeCard{}
	db, q, svc := newCheckoutFixture(nil, card)

	res, err := svc.Create(context.Background(), CheckoutRequest{
		UserID: "u1", Email: "ana@example.com", Name: "Ana", Plan: "monthly", Method: model.MethodCreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", res.BillingURL)
	assert.Equal(t, int64(4990), card.req.Amount)
	assert.Equal(t, "u1", card.req.UserID)
	assert.Empty(t, db.payments)
	assert.Empty(t, q.sent)
}

func TestCheckoutRejectsUnknownPlan(t *testing.T) {
	_, _, svc := newCheckoutFixture(&fakeAbacate{}, &fakeCard{})

	_, err := svc.Create(context.Background(), CheckoutRequest{UserID: "u1", Plan: "weekly", Method: model.MethodCreditCard})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
