// Package payment talks to the payment providers and turns their webhook payloads into
// one canonical Event.
package payment

import (
	"crypto/subtle"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Provider names as they appear in webhook URLs and logs.
const (
	ProviderCakto      = "cakto"
	ProviderAbacatePay = "abacatepay"
	ProviderStripe     = "stripe"
)

// Kind is what a provider event means for us.
type Kind string

const (
	KindCheckoutCreated      Kind = "checkout_created"
	KindPurchaseApproved     Kind = "purchase_approved"
	KindRefunded             Kind = "refunded"
	KindSubscriptionCanceled Kind = "subscription_canceled"
	KindExpired              Kind = "expired"
	KindUnknown              Kind = "unknown"
)

var eventKinds = map[string]Kind{
	"pix_gerado":       KindCheckoutCreated,
	"boleto_gerado":    KindCheckoutCreated,
	"picpay_gerado":    KindCheckoutCreated,
	"checkout_created": KindCheckoutCreated,
	"waiting_payment":  KindCheckoutCreated,
	"billing.created":  KindCheckoutCreated,

	"purchase_approved": KindPurchaseApproved,
	"billing.paid":      KindPurchaseApproved,
	"checkout.session.async_payment_succeeded": KindPurchaseApproved,

	"refund":                 KindRefunded,
	"chargeback":             KindRefunded,
	"billing.refunded":       KindRefunded,
	"charge.refunded":        KindRefunded,
	"charge.dispute.created": KindRefunded,

	"subscription_canceled":         KindSubscriptionCanceled,
	"customer.subscription.deleted": KindSubscriptionCanceled,

	"billing.expired":          KindExpired,
	"checkout.session.expired": KindExpired,
}

// KindOf maps a raw provider event name.
func KindOf(name string) Kind {
	if k, ok := eventKinds[name]; ok {
		return k
	}
	return KindUnknown
}

// Billing plans as stored in payments.plan. The profile tier is model.Plan.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// DefaultPlan is stored when the provider does not tell which plan was bought.
const DefaultPlan = PlanMonthly

// IsBillingPlan reports whether plan is one of the billing plans.
func IsBillingPlan(plan string) bool {
	return plan == PlanMonthly || plan == PlanAnnual
}

// DefaultAmount is used when a payload carries no usable amount, in cents.
const DefaultAmount int64 = 4990

// Event is the provider-independent view of a webhook delivery.
type Event struct {
	Provider   string
	ID         string // dedup key, unique per provider
	Kind       Kind
	RawName    string
	BillingID  string
	PaymentRef string // provider payment behind the billing (Stripe PaymentIntent)
	Email      string
	UserID     string
	Plan       string
	Amount     int64
	Method     string
	OccurredAt time.Time
}

var (
	// ErrUnauthorized is returned when the webhook secret or signature does not match.
	ErrUnauthorized = errors.New("webhook authentication failed")
	// ErrMissingEvent is returned for payloads without an event name.
	ErrMissingEvent = errors.New("invalid payload - missing event")
	// ErrUnknownProvider is returned for webhook paths no normalizer is registered for.
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// Delivery is an inbound webhook request.
type Delivery struct {
	Body   []byte
	Header http.Header
	Query  url.Values
}

// Normalizer authenticates a delivery and decodes it into an Event.
type Normalizer interface {
	Provider() string
	Normalize(d Delivery) (*Event, error)
}

// Registry resolves the normalizer for a provider path segment.
type Registry map[string]Normalizer

// NewRegistry indexes normalizers by provider name.
func NewRegistry(ns ...Normalizer) Registry {
	r := make(Registry, len(ns))
	for _, n := range ns {
		r[n.Provider()] = n
	}
	return r
}

func (r Registry) Normalize(provider string, d Delivery) (*Event, error) {
	n, ok := r[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return n.Normalize(d)
}

// secretMatches compares in constant time. An empty expected secret disables the check.
func secretMatches(expected, got string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// cents converts a loosely typed amount. Strings are parsed, anything unusable yields
// DefaultAmount.
func cents(v any) int64 {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return int64(math.Round(t))
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && f > 0 {
			return int64(math.Round(f))
		}
	}
	return DefaultAmount
}

// idString renders an id that may arrive as a string or a number.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
