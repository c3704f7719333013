package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dirigia/internal/model"
)

type caktoParty struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type caktoOrder struct {
	ID     any `json:"id"`
	Amount any `json:"amount"`
	Price  any `json:"price"`
}

type caktoPayload struct {
	Event    string      `json:"event"`
	CustomID string      `json:"custom_id"`
	Secret   string      `json:"secret"`
	ID       any         `json:"id"`
	Amount   any         `json:"amount"`
	Customer *caktoParty `json:"customer"`
	Order    *caktoOrder `json:"order"`
	Data     *struct {
		Customer *caktoParty `json:"customer"`
		Order    *caktoOrder `json:"order"`
	} `json:"data"`
}

type caktoNormalizer struct {
	secret string
	now    func() time.Time
}

// NewCaktoNormalizer accepts Cakto deliveries carrying secret in the body or the query.
func NewCaktoNormalizer(secret string) Normalizer {
	return &caktoNormalizer{secret: secret, now: time.Now}
}

func (c *caktoNormalizer) Provider() string { return ProviderCakto }

func (c *caktoNormalizer) Normalize(d Delivery) (*Event, error) {
	var p caktoPayload
	if err := json.Unmarshal(d.Body, &p); err != nil {
		return nil, fmt.Errorf("decoding cakto payload: %w", err)
	}

	got := p.Secret
	if got == "" {
		got = d.Query.Get("secret")
	}
	if !secretMatches(c.secret, got) {
		return nil, ErrUnauthorized
	}

	name := p.Event
	if name == "" {
		name = p.CustomID
	}
	if name == "" {
		return nil, ErrMissingEvent
	}

	customer := p.Customer
	order := p.Order
	if p.Data != nil {
		if customer == nil {
			customer = p.Data.Customer
		}
		if order == nil {
			order = p.Data.Order
		}
	}

	now := c.now().UTC()
	ev := &Event{
		Provider:   ProviderCakto,
		Kind:       KindOf(name),
		RawName:    name,
		Plan:       DefaultPlan,
		Method:     model.MethodCakto,
		OccurredAt: now,
	}
	if customer != nil {
		ev.Email = strings.TrimSpace(customer.Email)
	}

	var amount any
	if order != nil {
		ev.BillingID = idString(order.ID)
		amount = order.Amount
		if amount == nil {
			amount = order.Price
		}
	}
	if ev.BillingID == "" {
		ev.BillingID = idString(p.ID)
	}
	if ev.BillingID == "" {
		ev.BillingID = fmt.Sprintf("cakto-%d", now.UnixMilli())
	}
	if amount == nil {
		amount = p.Amount
	}
	ev.Amount = cents(amount)

	// Cakto sends no delivery id; event name plus order identifies a delivery.
	ev.ID = name + ":" + ev.BillingID
	return ev, nil
}
