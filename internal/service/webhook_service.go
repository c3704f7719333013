package service

import (
	"context"
	"fmt"
	"time"

	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/repository"

	"github.com/rs/zerolog"
)

// Webhook acknowledgement messages.
const (
	MsgUserNotFound      = "User not found but webhook received"
	MsgUpgraded          = "User upgraded to premium"
	MsgRefundProcessed   = "Refund/chargeback processed"
	MsgCancelProcessed   = "Subscription canceled processed"
	MsgCheckoutRecorded  = "Checkout recorded"
	MsgExpiredProcessed  = "Expiration processed"
	MsgAlreadyProcessed  = "Event already processed"
	MsgMissingEmail      = "Missing customer email"
	MsgMissingBillingRef = "Missing billing id"
)

// ApplyResult is what the webhook endpoint acknowledges.
type ApplyResult struct {
	Message   string
	Duplicate bool
}

// WebhookService applies normalized payment events. Applying the same event twice
// has the same effect as applying it once.
type WebhookService interface {
	Apply(ctx context.Context, ev *payment.Event) (*ApplyResult, error)
}

type webhookService struct {
	profiles repository.ProfileRepository
	payments repository.PaymentRepository
	ledger   repository.WebhookEventRepository
	notifier Notifier
	logger   zerolog.Logger
}

func NewWebhookService(
	profiles repository.ProfileRepository,
	payments repository.PaymentRepository,
	ledger repository.WebhookEventRepository,
	notifier Notifier,
	logger zerolog.Logger,
) WebhookService {
	return &webhookService{
		profiles: profiles,
		payments: payments,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger.With().Str("service", "WebhookService").Logger(),
	}
}

func (s *webhookService) Apply(ctx context.Context, ev *payment.Event) (*ApplyResult, error) {
	log := s.logger.With().
		Str("provider", ev.Provider).
		Str("event", ev.RawName).
		Str("event_id", ev.ID).
		Str("billing_id", ev.BillingID).
		Logger()

	if ev.ID != "" {
		seen, err := s.ledger.Seen(ctx, ev.Provider, ev.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check webhook ledger")
			return nil, persistence(err)
		}
		if seen {
			log.Info().Msg("Duplicate delivery acknowledged")
			return &ApplyResult{Message: MsgAlreadyProcessed, Duplicate: true}, nil
		}
	}

	var (
		res    *ApplyResult
		record bool
		err    error
	)
	switch ev.Kind {
	case payment.KindCheckoutCreated:
		res, record, err = s.checkoutCreated(ctx, ev, log)
	case payment.KindPurchaseApproved:
		res, record, err = s.purchaseApproved(ctx, ev, log)
	case payment.KindRefunded:
		res, record, err = s.downgrade(ctx, ev, MsgRefundProcessed, log)
	case payment.KindSubscriptionCanceled:
		res, record, err = s.downgrade(ctx, ev, MsgCancelProcessed, log)
	case payment.KindExpired:
		res, record, err = s.expired(ctx, ev, log)
	default:
		log.Info().Msg("Event acknowledged without action")
		return &ApplyResult{Message: fmt.Sprintf("Event %s received", ev.RawName)}, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to apply payment event")
		return nil, err
	}

	if record && ev.ID != "" {
		_, err := s.ledger.Record(ctx, &model.WebhookEvent{
			Provider:  ev.Provider,
			EventID:   ev.ID,
			EventName: ev.RawName,
			BillingID: ev.BillingID,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to record webhook event")
		}
	}
	log.Info().Str("result", res.Message).Msg("Payment event applied")
	return res, nil
}

// resolveProfile joins by user id when the provider carried it, else by email.
func (s *webhookService) resolveProfile(ctx context.Context, ev *payment.Event) (*model.Profile, error) {
	if ev.UserID != "" {
		p, err := s.profiles.GetByID(ctx, ev.UserID)
		if err != nil {
			return nil, persistence(err)
		}
		if p != nil {
			return p, nil
		}
	}
	if ev.Email == "" {
		return nil, nil
	}
	p, err := s.profiles.GetByEmail(ctx, ev.Email)
	if err != nil {
		return nil, persistence(err)
	}
	return p, nil
}

func methodOf(ev *payment.Event) string {
	if ev.Method != "" {
		return ev.Method
	}
	switch ev.Provider {
	case payment.ProviderCakto:
		return model.MethodCakto
	case payment.ProviderStripe:
		return model.MethodStripe
	}
	return model.MethodPix
}

func planOf(ev *payment.Event) string {
	if payment.IsBillingPlan(ev.Plan) {
		return ev.Plan
	}
	return payment.DefaultPlan
}

func refOf(ev *payment.Event) *string {
	if ev.PaymentRef == "" {
		return nil
	}
	ref := ev.PaymentRef
	return &ref
}

func amountOf(ev *payment.Event) int64 {
	if ev.Amount > 0 {
		return ev.Amount
	}
	return payment.DefaultAmount
}

// unkeyed acknowledges an event that names no billing. Nothing can be written, and a
// retry would carry the same payload.
func unkeyed(ev *payment.Event, log zerolog.Logger) (*ApplyResult, bool, error) {
	log.Warn().Str("kind", string(ev.Kind)).Msg("Event carries no billing id; ignored")
	return &ApplyResult{Message: MsgMissingBillingRef}, false, nil
}

func (s *webhookService) checkoutCreated(ctx context.Context, ev *payment.Event, log zerolog.Logger) (*ApplyResult, bool, error) {
	if ev.BillingID == "" {
		return unkeyed(ev, log)
	}
	p, err := s.resolveProfile(ctx, ev)
	if err != nil {
		return nil, false, err
	}
	row := &model.Payment{
		BillingID:     ev.BillingID,
		Plan:          planOf(ev),
		Amount:        amountOf(ev),
		PaymentMethod: methodOf(ev),
		ProviderRef:   refOf(ev),
	}
	if p != nil {
		row.UserID = p.ID
	}
	inserted, err := s.payments.InsertPendingIfAbsent(ctx, row)
	if err != nil {
		return nil, false, persistence(err)
	}
	if inserted {
		s.notifier.Notify(ctx, Change{Type: ChangePayment, UserID: row.UserID, BillingID: row.BillingID,
			Status: string(model.PaymentPending), Provider: ev.Provider})
	}
	return &ApplyResult{Message: MsgCheckoutRecorded}, true, nil
}

func (s *webhookService) purchaseApproved(ctx context.Context, ev *payment.Event, log zerolog.Logger) (*ApplyResult, bool, error) {
	if ev.UserID == "" && ev.Email == "" {
		return nil, false, validation(MsgMissingEmail)
	}
	if ev.BillingID == "" {
		return unkeyed(ev, log)
	}
	p, err := s.resolveProfile(ctx, ev)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		log.Warn().Str("email", ev.Email).Str("user_id", ev.UserID).Msg("No profile for approved purchase")
		return &ApplyResult{Message: MsgUserNotFound}, false, nil
	}

	paidAt := ev.OccurredAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	result, err := s.payments.ApprovePurchase(ctx, &model.Payment{
		UserID:        p.ID,
		BillingID:     ev.BillingID,
		Plan:          planOf(ev),
		Amount:        amountOf(ev),
		PaymentMethod: methodOf(ev),
		ProviderRef:   refOf(ev),
		PaidAt:        &paidAt,
	})
	if err != nil {
		return nil, false, persistence(err)
	}

	if result == repository.Unchanged {
		if existing, err := s.payments.GetByBillingID(ctx, ev.BillingID); err == nil && existing != nil &&
			!existing.Status.CanTransition(model.PaymentPaid) {
			log.Warn().Str("status", string(existing.Status)).Msg("Approval received for a closed billing; row left as is")
		}
	} else {
		s.notifier.Notify(ctx, Change{Type: ChangePayment, UserID: p.ID, BillingID: ev.BillingID,
			Status: string(model.PaymentPaid), Provider: ev.Provider})
	}
	if p.Plan != model.PlanPremium {
		s.notifier.Notify(ctx, Change{Type: ChangePlan, UserID: p.ID, Plan: string(model.PlanPremium), Provider: ev.Provider})
	}
	log.Info().Str("user_id", p.ID).Str("upsert", result.String()).Msg("Profile upgraded to premium")
	return &ApplyResult{Message: MsgUpgraded}, true, nil
}

// payerOf finds the user behind a refund or cancellation. Providers that send no user id
// or email are traced back through the payment row their billing or payment reference
// points to.
func (s *webhookService) payerOf(ctx context.Context, ev *payment.Event) (string, error) {
	if ev.UserID != "" {
		return ev.UserID, nil
	}
	if ev.PaymentRef != "" {
		row, err := s.payments.GetByProviderRef(ctx, ev.PaymentRef)
		if err != nil {
			return "", persistence(err)
		}
		if row != nil && row.UserID != "" {
			return row.UserID, nil
		}
	}
	if ev.BillingID != "" {
		row, err := s.payments.GetByBillingID(ctx, ev.BillingID)
		if err != nil {
			return "", persistence(err)
		}
		if row != nil && row.UserID != "" {
			return row.UserID, nil
		}
	}
	if ev.Email != "" {
		p, err := s.profiles.GetByEmail(ctx, ev.Email)
		if err != nil {
			return "", persistence(err)
		}
		if p != nil {
			return p.ID, nil
		}
	}
	return "", nil
}

func (s *webhookService) downgrade(ctx context.Context, ev *payment.Event, msg string, log zerolog.Logger) (*ApplyResult, bool, error) {
	userID, err := s.payerOf(ctx, ev)
	if err != nil {
		return nil, false, err
	}
	if userID != "" {
		ok, err := s.profiles.SetPlan(ctx, userID, model.PlanFree)
		if err != nil {
			return nil, false, persistence(err)
		}
		if ok {
			s.notifier.Notify(ctx, Change{Type: ChangePlan, UserID: userID, Plan: string(model.PlanFree), Provider: ev.Provider})
			return &ApplyResult{Message: msg}, true, nil
		}
	}
	// Left out of the ledger so a re-delivery can still apply once the payer is known.
	log.Warn().Str("email", ev.Email).Str("user_id", userID).Str("payment_ref", ev.PaymentRef).
		Msg("No profile for refund or cancellation")
	return &ApplyResult{Message: MsgUserNotFound}, false, nil
}

func (s *webhookService) expired(ctx context.Context, ev *payment.Event, log zerolog.Logger) (*ApplyResult, bool, error) {
	if ev.BillingID == "" {
		return unkeyed(ev, log)
	}
	changed, err := s.payments.MarkExpired(ctx, ev.BillingID)
	if err != nil {
		return nil, false, persistence(err)
	}
	if changed {
		userID := ev.UserID
		if row, err := s.payments.GetByBillingID(ctx, ev.BillingID); err == nil && row != nil {
			userID = row.UserID
		}
		s.notifier.Notify(ctx, Change{Type: ChangePayment, UserID: userID, BillingID: ev.BillingID,
			Status: string(model.PaymentExpired), Provider: ev.Provider})
	}
	return &ApplyResult{Message: MsgExpiredProcessed}, true, nil
}
