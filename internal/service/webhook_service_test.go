package service

import (
	"context"
	"testing"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/model"
	"dirigia/internal/payment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFixture() (*memDB, *recordingNotifier, WebhookService) {
	db := newMemDB()
	n := &recordingNotifier{}
	svc := NewWebhookService(fakeProfiles{db}, fakePayments{db}, fakeLedger{db}, n, zerolog.Nop())
	return db, n, svc
}

func approval(id, billingID, email string) *payment.Event {
	return &payment.Event{
		Provider:   payment.ProviderCakto,
		ID:         id,
		Kind:       payment.KindPurchaseApproved,
		RawName:    "purchase_approved",
		BillingID:  billingID,
		Email:      email,
		Amount:     4990,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestApplyApprovalIsIdempotent(t *testing.T) {
	db, n, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanFree)

	res, err := svc.Apply(context.Background(), approval("purchase_approved:ord_1", "ord_1", "ANA@example.com"))
	require.NoError(t, err)
	assert.Equal(t, MsgUpgraded, res.Message)
	assert.Equal(t, model.PlanPremium, db.profiles["u1"].Plan)
	require.Contains(t, db.payments, "ord_1")
	assert.Equal(t, model.PaymentPaid, db.payments["ord_1"].Status)
	assert.Equal(t, "u1", db.payments["ord_1"].UserID)
	assert.Equal(t, payment.PlanMonthly, db.payments["ord_1"].Plan)

	res, err = svc.Apply(context.Background(), approval("purchase_approved:ord_1", "ord_1", "ana@example.com"))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, db.payments, 1)
	assert.Len(t, n.changes, 2)
}

func TestApplyApprovalUpgradesPendingRow(t *testing.T) {
	db, _, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanFree)
	db.payments["bill_1"] = &model.Payment{BillingID: "bill_1", UserID: "u1", Status: model.PaymentPending}

	ev := approval("billing.paid:bill_1", "bill_1", "")
	ev.Provider = payment.ProviderAbacatePay
	ev.UserID = "u1"
	_, err := svc.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, db.payments["bill_1"].Status)
	require.NotNil(t, db.payments["bill_1"].PaidAt)

	// a second event id for the same billing still leaves a single PAID row
	ev.ID = "reconcile:billing.paid:bill_1"
	_, err = svc.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.Len(t, db.payments, 1)
	assert.Equal(t, model.PaymentPaid, db.payments["bill_1"].Status)
}

func TestApplyApprovalWithoutProfile(t *testing.T) {
	db, _, svc := newWebhookFixture()

	res, err := svc.Apply(context.Background(), approval("e1", "ord_1", "ghost@example.com"))
	require.NoError(t, err)
	assert.Equal(t, MsgUserNotFound, res.Message)
	assert.Empty(t, db.payments)
	assert.Empty(t, db.events)
}

func TestApplyApprovalWithoutEmail(t *testing.T) {
	_, _, svc := newWebhookFixture()

	_, err := svc.Apply(context.Background(), approval("e1", "ord_1", ""))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, MsgMissingEmail, apperr.MessageOf(err))
}

func TestApplyApprovalPersistenceFailure(t *testing.T) {
	db, _, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanFree)
	db.failWrite = errDBDown

	_, err := svc.Apply(context.Background(), approval("e1", "ord_1", "ana@example.com"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Empty(t, db.events)
}

func TestApplyExpiredNeverTouchesPaid(t *testing.T) {
	db, _, svc := newWebhookFixture()
	db.payments["paid"] = &model.Payment{BillingID: "paid", Status: model.PaymentPaid}
	db.payments["open"] = &model.Payment{BillingID: "open", Status: model.PaymentPending}

	for _, id := range []string{"paid", "open"} {
		_, err := svc.Apply(context.Background(), &payment.Event{
			Provider: payment.ProviderAbacatePay, ID: "billing.expired:" + id,
			Kind: payment.KindExpired, RawName: "billing.expired", BillingID: id,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, model.PaymentPaid, db.payments["paid"].Status)
	assert.Equal(t, model.PaymentExpired, db.payments["open"].Status)
}

func TestApplyRefundDowngradesByEmail(t *testing.T) {
	db, n, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanPremium)
	db.payments["ord_1"] = &model.Payment{BillingID: "ord_1", UserID: "u1", Status: model.PaymentPaid}

	res, err := svc.Apply(context.Background(), &payment.Event{
		Provider: payment.ProviderCakto, ID: "refund:ord_1", Kind: payment.KindRefunded,
		RawName: "refund", BillingID: "ord_1", Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, MsgRefundProcessed, res.Message)
	assert.Equal(t, model.PlanFree, db.profiles["u1"].Plan)
	assert.Equal(t, model.PaymentPaid, db.payments["ord_1"].Status)
	require.Len(t, n.changes, 1)
	assert.Equal(t, ChangePlan, n.changes[0].Type)
}

func TestApplyCheckoutCreatedKeepsExistingRow(t *testing.T) {
	db, _, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanFree)
	db.payments["ord_1"] = &model.Payment{BillingID: "ord_1", UserID: "u1", Status: model.PaymentPaid}

	_, err := svc.Apply(context.Background(), &payment.Event{
		Provider: payment.ProviderCakto, ID: "pix_gerado:ord_1", Kind: payment.KindCheckoutCreated,
		RawName: "pix_gerado", BillingID: "ord_1", Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, db.payments["ord_1"].Status)

	_, err = svc.Apply(context.Background(), &payment.Event{
		Provider: payment.ProviderCakto, ID: "pix_gerado:ord_2", Kind: payment.KindCheckoutCreated,
		RawName: "pix_gerado", BillingID: "ord_2", Email: "ana@example.com",
	})
	require.NoError(t, err)
	require.Contains(t, db.payments, "ord_2")
	assert.Equal(t, model.PaymentPending, db.payments["ord_2"].Status)
	assert.Equal(t, "u1", db.payments["ord_2"].UserID)
	assert.Equal(t, model.MethodCakto, db.payments["ord_2"].PaymentMethod)
}

func TestApplyUnknownEvent(t *testing.T) {
	db, _, svc := newWebhookFixture()

	res, err := svc.Apply(context.Background(), &payment.Event{
		Provider: payment.ProviderCakto, ID: "x", Kind: payment.KindUnknown, RawName: "purchase_refused",
	})
	require.NoError(t, err)
	assert.Equal(t, "Event purchase_refused received", res.Message)
	assert.Empty(t, db.events)
}

func TestApplyDisputeDowngradesThroughPaymentIntent(t *testing.T) {
	db, n, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanFree)

	paid := &payment.Event{
		Provider: payment.ProviderStripe, ID: "evt_paid", Kind: payment.KindPurchaseApproved,
		RawName: "checkout.session.completed", BillingID: "cs_1", PaymentRef: "pi_1", UserID: "u1",
		Amount: 4990, OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	_, err := svc.Apply(context.Background(), paid)
	require.NoError(t, err)
	require.Equal(t, model.PlanPremium, db.profiles["u1"].Plan)
	require.NotNil(t, db.payments["cs_1"].ProviderRef)

	res, err := svc.Apply(context.Background(), &payment.Event{
		Provider: payment.ProviderStripe, ID: "evt_dispute", Kind: payment.KindRefunded,
		RawName: "charge.dispute.created", BillingID: "ch_1", PaymentRef: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, MsgRefundProcessed, res.Message)
	assert.Equal(t, model.PlanFree, db.profiles["u1"].Plan)
	assert.Equal(t, model.PaymentPaid, db.payments["cs_1"].Status)
	assert.True(t, db.events["stripe/evt_dispute"])
	last := n.changes[len(n.changes)-1]
	assert.Equal(t, ChangePlan, last.Type)
	assert.Equal(t, string(model.PlanFree), last.Plan)
}

func TestApplyRefundWithoutPayerIsNotRecorded(t *testing.T) {
	db, n, svc := newWebhookFixture()
	db.addProfile("u1", "ana@example.com", model.PlanPremium)

	ev := &payment.Event{
		Provider: payment.ProviderStripe, ID: "evt_orphan", Kind: payment.KindRefunded,
		RawName: "charge.dispute.created", BillingID: "ch_9", PaymentRef: "pi_unknown",
	}
	res, err := svc.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, MsgUserNotFound, res.Message)
	assert.Equal(t, model.PlanPremium, db.profiles["u1"].Plan)
	assert.Empty(t, n.changes)

	res, err = svc.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}

func TestApplyApprovalStoresBillingPlan(t *testing.T) {
	for _, tc := range []struct {
		plan string
		want string
	}{
		{"", payment.PlanMonthly},
		{payment.PlanAnnual, payment.PlanAnnual},
		{"premium", payment.PlanMonthly},
	} {
		t.Run(tc.plan, func(t *testing.T) {
			db, _, svc := newWebhookFixture()
			db.addProfile("u1", "ana@example.com", model.PlanFree)

			ev := approval("purchase_approved:ord_9", "ord_9", "ana@example.com")
			ev.Plan = tc.plan
			_, err := svc.Apply(context.Background(), ev)
			require.NoError(t, err)
			assert.Equal(t, tc.want, db.payments["ord_9"].Plan)
		})
	}
}

func TestApplyWithoutBillingIDIsAcknowledged(t *testing.T) {
	for _, kind := range []payment.Kind{payment.KindCheckoutCreated, payment.KindPurchaseApproved, payment.KindExpired} {
		t.Run(string(kind), func(t *testing.T) {
			db, n, svc := newWebhookFixture()
			db.addProfile("u1", "ana@example.com", model.PlanFree)
			ev := &payment.Event{Provider: payment.ProviderCakto, ID: "evt_nobill", Kind: kind, Email: "ana@example.com"}

			res, err := svc.Apply(context.Background(), ev)
			require.NoError(t, err)
			assert.Equal(t, MsgMissingBillingRef, res.Message)
			assert.False(t, res.Duplicate)
			assert.Empty(t, db.payments)
			assert.Empty(t, n.changes)
			assert.Equal(t, model.PlanFree, db.profiles["u1"].Plan)
			assert.False(t, db.events["cakto/evt_nobill"])
		})
	}
}
