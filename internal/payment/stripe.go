package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"dirigia/internal/model"
)

type stripeNormalizer struct {
	secret string
}

// NewStripeNormalizer verifies Stripe-Signature against the endpoint secret.
func NewStripeNormalizer(secret string) Normalizer {
	return &stripeNormalizer{secret: secret}
}

func (s *stripeNormalizer) Provider() string { return ProviderStripe }

func (s *stripeNormalizer) Normalize(d Delivery) (*Event, error) {
	var event stripe.Event
	if s.secret == "" {
		if err := json.Unmarshal(d.Body, &event); err != nil {
			return nil, fmt.Errorf("decoding stripe event: %w", err)
		}
	} else {
		var err error
		event, err = webhook.ConstructEventWithOptions(d.Body, d.Header.Get("Stripe-Signature"), s.secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}
	if event.Type == "" {
		return nil, ErrMissingEvent
	}

	name := string(event.Type)
	ev := &Event{
		Provider:   ProviderStripe,
		ID:         event.ID,
		Kind:       KindOf(name),
		RawName:    name,
		Plan:       DefaultPlan,
		Method:     model.MethodStripe,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return ev, nil
	}

	switch name {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decoding checkout session: %w", err)
		}
		ev.BillingID = cs.ID
		ev.Amount = cs.AmountTotal
		ev.UserID = cs.ClientReferenceID
		if uid := cs.Metadata["user_id"]; uid != "" {
			ev.UserID = uid
		}
		if plan := cs.Metadata["plan"]; plan != "" {
			ev.Plan = plan
		}
		if cs.PaymentIntent != nil {
			ev.PaymentRef = cs.PaymentIntent.ID
		}
		ev.Email = cs.CustomerEmail
		if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
			ev.Email = cs.CustomerDetails.Email
		}
		if name == "checkout.session.completed" {
			// Delayed methods complete the session before the money arrives.
			if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
				ev.Kind = KindPurchaseApproved
			} else {
				ev.Kind = KindCheckoutCreated
			}
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decoding charge: %w", err)
		}
		ev.BillingID = ch.ID
		ev.Amount = ch.Amount
		ev.UserID = ch.Metadata["user_id"]
		if ch.PaymentIntent != nil {
			ev.PaymentRef = ch.PaymentIntent.ID
		}
		ev.Email = ch.ReceiptEmail
		if ch.BillingDetails != nil && ch.BillingDetails.Email != "" {
			ev.Email = ch.BillingDetails.Email
		}
	case "charge.dispute.created":
		var dp stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dp); err != nil {
			return nil, fmt.Errorf("decoding dispute: %w", err)
		}
		ev.BillingID = dp.ID
		ev.Amount = dp.Amount
		ev.UserID = dp.Metadata["user_id"]
		if dp.Charge != nil {
			ev.BillingID = dp.Charge.ID
		}
		// A dispute names neither the user nor the session; the PaymentIntent
		// leads back to the payment row written at approval.
		if dp.PaymentIntent != nil {
			ev.PaymentRef = dp.PaymentIntent.ID
		}
		if dp.Evidence != nil {
			ev.Email = dp.Evidence.CustomerEmailAddress
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decoding subscription: %w", err)
		}
		ev.BillingID = sub.ID
		ev.UserID = sub.Metadata["user_id"]
	}
	return ev, nil
}
