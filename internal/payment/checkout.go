package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// CardCheckoutRequest describes a card purchase.
type CardCheckoutRequest struct {
	UserID      string
	Email       string
	Name        string
	Plan        string
	Amount      int64
	SuccessURL  string
	CancelURL   string
	Description string
}

// CardCheckout is the outcome of starting a card purchase.
type CardCheckout struct {
	Provider  string
	URL       string
	BillingID string
}

// CardProvider starts hosted card checkouts.
type CardProvider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CardCheckoutRequest) (*CardCheckout, error)
}

type stripeCheckout struct{}

// NewStripeCheckout sets the global Stripe key and returns the Stripe card provider.
func NewStripeCheckout(secretKey string) CardProvider {
	stripe.Key = secretKey
	return &stripeCheckout{}
}

func (s *stripeCheckout) Name() string { return ProviderStripe }

func (s *stripeCheckout) CreateCheckout(ctx context.Context, req CardCheckoutRequest) (*CardCheckout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("brl"),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   map[string]string{"user_id": req.UserID, "plan": req.Plan},
		// Charges and disputes only reach the PaymentIntent, not the session.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"user_id": req.UserID, "plan": req.Plan},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CardCheckout{Provider: ProviderStripe, URL: sess.URL, BillingID: sess.ID}, nil
}

type caktoCheckout struct {
	pageURL string
}

// NewCaktoCheckout redirects to a static Cakto sales page.
func NewCaktoCheckout(pageURL string) CardProvider {
	return &caktoCheckout{pageURL: pageURL}
}

func (c *caktoCheckout) Name() string { return ProviderCakto }

func (c *caktoCheckout) CreateCheckout(_ context.Context, req CardCheckoutRequest) (*CardCheckout, error) {
	u, err := url.Parse(c.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing cakto checkout url: %w", err)
	}
	q := u.Query()
	if req.Email != "" {
		q.Set("email", req.Email)
	}
	if req.Name != "" {
		q.Set("name", req.Name)
	}
	u.RawQuery = q.Encode()
	return &CardCheckout{Provider: ProviderCakto, URL: u.String()}, nil
}
