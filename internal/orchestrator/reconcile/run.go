// Package reconcile polls AbacatePay for PIX billings whose webhook has not arrived.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/repository"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
)

// Options tune the worker. Zero values fall back to the defaults below.
type Options struct {
	Queue          string
	DeadLetter     string
	PollTimeout    time.Duration
	MaxMessages    int
	Visibility     time.Duration
	Delay          time.Duration
	MaxAttempts    int
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = "payment_reconcile"
	}
	if o.DeadLetter == "" {
		o.DeadLetter = o.Queue + "_dlq"
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 30 * time.Second
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = 10
	}
	if o.Visibility <= 0 {
		o.Visibility = time.Minute
	}
	if o.Delay <= 0 {
		o.Delay = time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 60
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
	return o
}

// Worker applies the provider-reported status of pending PIX billings.
type Worker struct {
	queue    pgmq.Queue
	provider payment.AbacatePayClient
	webhooks service.WebhookService
	dlq      repository.DLQRepository
	opts     Options
	now      func() time.Time
	sleep    func(context.Context, time.Duration)
	logger   zerolog.Logger
}

func NewWorker(
	queue pgmq.Queue,
	provider payment.AbacatePayClient,
	webhooks service.WebhookService,
	dlq repository.DLQRepository,
	opts Options,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		queue:    queue,
		provider: provider,
		webhooks: webhooks,
		dlq:      dlq,
		opts:     opts.withDefaults(),
		now:      time.Now,
		sleep:    sleepCtx,
		logger:   logger.With().Str("service", "ReconcileWorker").Logger(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run starts the reconcile orchestrator.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.opts.Queue).Msg("Starting reconcile orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down reconcile orchestrator")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, w.opts.Queue, w.opts.Visibility, w.opts.PollTimeout, w.opts.MaxMessages)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading reconcile queue")
			w.sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	var job service.ReconcileJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.BillingID == "" {
		log.Error().Err(err).Msg("Invalid reconcile payload; dead-lettering")
		w.deadLetter(ctx, msg, "invalid payload")
		return
	}
	log = log.With().Str("billing_id", job.BillingID).Int("attempt", job.Attempt).Logger()

	billing, err := w.findBilling(ctx, job.BillingID)
	if err != nil {
		log.Warn().Err(err).Msg("Provider lookup failed; rescheduling")
		w.reschedule(ctx, msg, job)
		return
	}
	if billing == nil {
		log.Warn().Msg("Billing not listed by provider; rescheduling")
		w.reschedule(ctx, msg, job)
		return
	}

	ev := payment.EventFromBilling(billing, job.UserID, w.now())
	if ev == nil {
		log.Debug().Str("status", billing.Status).Msg("Billing still open")
		w.reschedule(ctx, msg, job)
		return
	}

	res, err := w.webhooks.Apply(ctx, ev)
	if err != nil {
		// left in the queue; it becomes visible again after the visibility timeout
		log.Error().Err(err).Msg("Failed to apply reconciled status")
		return
	}
	log.Info().Str("status", billing.Status).Str("result", res.Message).Msg("Billing reconciled")
	w.ack(ctx, msg)
}

// findBilling retries transient provider failures with exponential backoff.
func (w *Worker) findBilling(ctx context.Context, id string) (*payment.Billing, error) {
	backoff := w.opts.BackoffInitial
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		b, err := w.provider.FindBilling(ctx, id)
		if err == nil {
			return b, nil
		}
		lastErr = err
		if attempt == w.opts.MaxRetries || ctx.Err() != nil {
			break
		}
		w.sleep(ctx, backoff)
		backoff = min(backoff*2, w.opts.BackoffMax)
	}
	return nil, fmt.Errorf("finding billing %s after %d attempts: %w", id, w.opts.MaxRetries, lastErr)
}

func (w *Worker) reschedule(ctx context.Context, msg *pgmq.Message, job service.ReconcileJob) {
	if job.Attempt >= w.opts.MaxAttempts {
		w.deadLetter(ctx, msg, fmt.Sprintf("billing still unresolved after %d attempts", job.Attempt))
		return
	}
	job.Attempt++
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	if _, err := w.queue.Send(ctx, w.opts.Queue, data, w.opts.Delay); err != nil {
		w.logger.Error().Err(err).Str("billing_id", job.BillingID).Msg("Failed to reschedule reconcile job")
		return
	}
	w.ack(ctx, msg)
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, reason string) {
	payload := msg.Data
	if !json.Valid(payload) {
		payload, _ = json.Marshal(map[string]string{"raw": string(msg.Data)})
	}
	if _, err := w.queue.Send(ctx, w.opts.DeadLetter, payload, 0); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to move message to dead letter queue")
		return
	}
	if w.dlq != nil {
		err := w.dlq.Create(ctx, &model.DeadLetterMessage{
			QueueName: w.opts.Queue,
			MessageID: fmt.Sprint(msg.ID),
			Payload:   string(payload),
			Reason:    &reason,
		})
		if err != nil {
			w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to record dead letter")
		}
	}
	w.ack(ctx, msg)
}

func (w *Worker) ack(ctx context.Context, msg *pgmq.Message) {
	if err := w.queue.Delete(ctx, w.opts.Queue, []int64{msg.ID}); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Error deleting reconcile message")
	}
}
