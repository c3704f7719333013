package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	queue   string
	payload []byte
	delay   time.Duration
}

type fakeQueue struct {
	sent    []sent
	deleted []int64
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte, delay time.Duration) (int64, error) {
	q.sent = append(q.sent, sent{queue, payload, delay})
	return int64(len(q.sent)), nil
}

func (q *fakeQueue) ReadWithPoll(context.Context, string, time.Duration, time.Duration, int) ([]*pgmq.Message, error) {
	return nil, nil
}

func (q *fakeQueue) Delete(_ context.Context, _ string, ids []int64) error {
	q.deleted = append(q.deleted, ids...)
	return nil
}

type fakeProvider struct {
	billing *payment.Billing
	fails   int
	calls   int
}

func (p *fakeProvider) CreateBilling(context.Context, payment.BillingRequest) (*payment.Billing, error) {
	return nil, errors.New("unused")
}

func (p *fakeProvider) ListBillings(context.Context) (*payment.BillingList, error) {
	return nil, errors.New("unused")
}

func (p *fakeProvider) FindBilling(_ context.Context, id string) (*payment.Billing, error) {
	p.calls++
	if p.calls <= p.fails {
		return nil, errors.New("timeout")
	}
	if p.billing != nil && p.billing.ID == id {
		return p.billing, nil
	}
	return nil, nil
}

func (p *fakeProvider) SimulatePayment(context.Context, string) (json.RawMessage, error) {
	return nil, errors.New("unused")
}

type fakeWebhooks struct {
	applied []*payment.Event
	err     error
}

func (f *fakeWebhooks) Apply(_ context.Context, ev *payment.Event) (*service.ApplyResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.applied = append(f.applied, ev)
	return &service.ApplyResult{Message: "ok"}, nil
}

type fakeDLQ struct {
	rows []*model.DeadLetterMessage
}

func (f *fakeDLQ) Create(_ context.Context, m *model.DeadLetterMessage) error {
	f.rows = append(f.rows, m)
	return nil
}

func newWorker(provider *fakeProvider, hooks *fakeWebhooks) (*Worker, *fakeQueue, *fakeDLQ) {
	q := &fakeQueue{}
	dlq := &fakeDLQ{}
	w := NewWorker(q, provider, hooks, dlq, Options{MaxAttempts: 3, Delay: 2 * time.Minute}, zerolog.Nop())
	w.sleep = func(context.Context, time.Duration) {}
	return w, q, dlq
}

func job(t *testing.T, id int64, attempt int) *pgmq.Message {
	t.Helper()
	data, err := json.Marshal(service.ReconcileJob{BillingID: "bill_1", UserID: "u1", Attempt: attempt})
	require.NoError(t, err)
	return &pgmq.Message{ID: id, Data: data}
}

func TestPaidBillingIsApplied(t *testing.T) {
	provider := &fakeProvider{billing: &payment.Billing{ID: "bill_1", Status: payment.BillingPaid, Amount: 4990}}
	hooks := &fakeWebhooks{}
	w, q, _ := newWorker(provider, hooks)

	w.handle(context.Background(), job(t, 7, 1))

	require.Len(t, hooks.applied, 1)
	ev := hooks.applied[0]
	assert.Equal(t, payment.KindPurchaseApproved, ev.Kind)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "bill_1", ev.BillingID)
	assert.Equal(t, []int64{7}, q.deleted)
	assert.Empty(t, q.sent)
}

func TestPendingBillingIsRescheduled(t *testing.T) {
	provider := &fakeProvider{billing: &payment.Billing{ID: "bill_1", Status: payment.BillingPending}}
	hooks := &fakeWebhooks{}
	w, q, _ := newWorker(provider, hooks)

	w.handle(context.Background(), job(t, 7, 1))

	assert.Empty(t, hooks.applied)
	require.Len(t, q.sent, 1)
	assert.Equal(t, "payment_reconcile", q.sent[0].queue)
	assert.Equal(t, 2*time.Minute, q.sent[0].delay)
	var next service.ReconcileJob
	require.NoError(t, json.Unmarshal(q.sent[0].payload, &next))
	assert.Equal(t, 2, next.Attempt)
	assert.Equal(t, []int64{7}, q.deleted)
}

func TestExhaustedJobIsDeadLettered(t *testing.T) {
	provider := &fakeProvider{billing: &payment.Billing{ID: "bill_1", Status: payment.BillingPending}}
	w, q, dlq := newWorker(provider, &fakeWebhooks{})

	w.handle(context.Background(), job(t, 9, 3))

	require.Len(t, q.sent, 1)
	assert.Equal(t, "payment_reconcile_dlq", q.sent[0].queue)
	require.Len(t, dlq.rows, 1)
	assert.Equal(t, "9", dlq.rows[0].MessageID)
	assert.Equal(t, []int64{9}, q.deleted)
}

func TestProviderErrorsAreRetried(t *testing.T) {
	provider := &fakeProvider{fails: 2, billing: &payment.Billing{ID: "bill_1", Status: payment.BillingExpired}}
	hooks := &fakeWebhooks{}
	w, _, _ := newWorker(provider, hooks)

	w.handle(context.Background(), job(t, 1, 1))

	assert.Equal(t, 3, provider.calls)
	require.Len(t, hooks.applied, 1)
	assert.Equal(t, payment.KindExpired, hooks.applied[0].Kind)
}

func TestApplyFailureLeavesMessage(t *testing.T) {
	provider := &fakeProvider{billing: &payment.Billing{ID: "bill_1", Status: payment.BillingPaid}}
	w, q, _ := newWorker(provider, &fakeWebhooks{err: errors.New("db down")})

	w.handle(context.Background(), job(t, 1, 1))

	assert.Empty(t, q.deleted)
	assert.Empty(t, q.sent)
}

func TestInvalidPayloadIsDeadLettered(t *testing.T) {
	w, q, dlq := newWorker(&fakeProvider{}, &fakeWebhooks{})

	w.handle(context.Background(), &pgmq.Message{ID: 3, Data: []byte("nope")})

	require.Len(t, q.sent, 1)
	assert.JSONEq(t, `{"raw":"nope"}`, string(q.sent[0].payload))
	require.Len(t, dlq.rows, 1)
	assert.Equal(t, []int64{3}, q.deleted)
}
