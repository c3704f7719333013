package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dirigia/internal/model"
)

const DefaultAbacatePayBaseURL = "https://api.abacatepay.com"

// AbacatePay billing statuses.
const (
	BillingPending   = "PENDING"
	BillingPaid      = "PAID"
	BillingExpired   = "EXPIRED"
	BillingCancelled = "CANCELLED"
	BillingRefunded  = "REFUNDED"
)

// Customer is the payer data AbacatePay requires for PIX.
type Customer struct {
	Name      string `json:"name"`
	Cellphone string `json:"cellphone"`
	Email     string `json:"email"`
	TaxID     string `json:"taxId"`
}

// Product is one billed line.
type Product struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

// BillingRequest is the body of POST /v1/billing/create.
type BillingRequest struct {
	Frequency     string    `json:"frequency"`
	Methods       []string  `json:"methods"`
	Products      []Product `json:"products"`
	ReturnURL     string    `json:"returnUrl"`
	CompletionURL string    `json:"completionUrl"`
	Customer      *Customer `json:"customer,omitempty"`
}

// Billing is AbacatePay's billing object.
type Billing struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Amount   int64     `json:"amount"`
	Status   string    `json:"status"`
	DevMode  bool      `json:"devMode"`
	Methods  []string  `json:"methods"`
	Products []Product `json:"products"`
	Customer *struct {
		ID       string   `json:"id"`
		Metadata Customer `json:"metadata"`
	} `json:"customer"`
}

// ExternalID returns the externalId of the first product, which carries our user id.
func (b *Billing) ExternalID() string {
	if len(b.Products) == 0 {
		return ""
	}
	return b.Products[0].ExternalID
}

// BillingList is the decoded list response plus the raw body for passthrough.
type BillingList struct {
	Billings []Billing
	Raw      json.RawMessage
}

// AbacatePayClient is the subset of the AbacatePay API used by checkout and reconcile.
type AbacatePayClient interface {
	CreateBilling(ctx context.Context, req BillingRequest) (*Billing, error)
	ListBillings(ctx context.Context) (*BillingList, error)
	FindBilling(ctx context.Context, id string) (*Billing, error)
	SimulatePayment(ctx context.Context, id string) (json.RawMessage, error)
}

// APIError is a non-2xx answer from AbacatePay.
type APIError struct {
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("abacatepay responded with status %d: %s", e.Status, e.Message)
}

type abacatePayClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewAbacatePayClient creates a client with its own timeout.
func NewAbacatePayClient(apiKey, baseURL string, timeout time.Duration) AbacatePayClient {
	if baseURL == "" {
		baseURL = DefaultAbacatePayBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &abacatePayClient{
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func (c *abacatePayClient) do(ctx context.Context, method, path string, body any) (json.RawMessage, json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal abacatepay request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create abacatepay request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling abacatepay %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading abacatepay response: %w", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Error != nil {
		msg := fmt.Sprint(env.Error)
		if env.Error == nil {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, raw, &APIError{Status: resp.StatusCode, Message: msg, Body: raw}
	}
	return env.Data, raw, nil
}

func (c *abacatePayClient) CreateBilling(ctx context.Context, req BillingRequest) (*Billing, error) {
	data, _, err := c.do(ctx, http.MethodPost, "/v1/billing/create", req)
	if err != nil {
		return nil, err
	}
	var b Billing
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding created billing: %w", err)
	}
	if b.ID == "" || b.URL == "" {
		return nil, fmt.Errorf("abacatepay returned a billing without id or url")
	}
	return &b, nil
}

func (c *abacatePayClient) ListBillings(ctx context.Context) (*BillingList, error) {
	data, raw, err := c.do(ctx, http.MethodGet, "/v1/billing/list", nil)
	if err != nil {
		return nil, err
	}
	var bs []Billing
	if err := json.Unmarshal(data, &bs); err != nil {
		return nil, fmt.Errorf("decoding billing list: %w", err)
	}
	return &BillingList{Billings: bs, Raw: raw}, nil
}

// FindBilling scans the billing list; AbacatePay has no get-by-id endpoint for billings.
func (c *abacatePayClient) FindBilling(ctx context.Context, id string) (*Billing, error) {
	list, err := c.ListBillings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list.Billings {
		if list.Billings[i].ID == id {
			return &list.Billings[i], nil
		}
	}
	return nil, nil
}

func (c *abacatePayClient) SimulatePayment(ctx context.Context, id string) (json.RawMessage, error) {
	path := "/v1/pixQrCode/simulate-payment?id=" + url.QueryEscape(id)
	data, _, err := c.do(ctx, http.MethodPost, path, map[string]any{"metadata": map[string]any{}})
	if err != nil {
		return nil, err
	}
	return data, nil
}

type abacateWebhook struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	DevMode bool   `json:"devMode"`
	Data    struct {
		Billing   *Billing `json:"billing"`
		PixQrCode *struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
			Status string `json:"status"`
		} `json:"pixQrCode"`
		Payment *struct {
			Amount int64  `json:"amount"`
			Method string `json:"method"`
		} `json:"payment"`
	} `json:"data"`
}

type abacateNormalizer struct {
	secret string
	now    func() time.Time
}

// NewAbacatePayNormalizer accepts deliveries whose webhookSecret query matches secret.
func NewAbacatePayNormalizer(secret string) Normalizer {
	return &abacateNormalizer{secret: secret, now: time.Now}
}

func (a *abacateNormalizer) Provider() string { return ProviderAbacatePay }

func (a *abacateNormalizer) Normalize(d Delivery) (*Event, error) {
	if !secretMatches(a.secret, d.Query.Get("webhookSecret")) {
		return nil, ErrUnauthorized
	}
	var p abacateWebhook
	if err := json.Unmarshal(d.Body, &p); err != nil {
		return nil, fmt.Errorf("decoding abacatepay payload: %w", err)
	}
	if p.Event == "" {
		return nil, ErrMissingEvent
	}

	ev := &Event{
		Provider:   ProviderAbacatePay,
		ID:         p.ID,
		Kind:       KindOf(p.Event),
		RawName:    p.Event,
		Plan:       DefaultPlan,
		Method:     model.MethodPix,
		OccurredAt: a.now().UTC(),
	}
	if b := p.Data.Billing; b != nil {
		ev.BillingID = b.ID
		ev.Amount = b.Amount
		ev.UserID = b.ExternalID()
		if b.Customer != nil {
			ev.Email = b.Customer.Metadata.Email
		}
	}
	if q := p.Data.PixQrCode; q != nil && ev.BillingID == "" {
		ev.BillingID = q.ID
		ev.Amount = q.Amount
	}
	if pay := p.Data.Payment; pay != nil && ev.Amount == 0 {
		ev.Amount = pay.Amount
	}
	if ev.ID == "" {
		ev.ID = p.Event + ":" + ev.BillingID
	}
	return ev, nil
}

// EventFromBilling builds the event a reconcile pass applies for a billing's current
// status. It returns nil while the billing is still open.
func EventFromBilling(b *Billing, userID string, now time.Time) *Event {
	ev := &Event{
		Provider:   ProviderAbacatePay,
		BillingID:  b.ID,
		UserID:     userID,
		Plan:       DefaultPlan,
		Amount:     b.Amount,
		Method:     model.MethodPix,
		OccurredAt: now.UTC(),
	}
	if ev.UserID == "" {
		ev.UserID = b.ExternalID()
	}
	if b.Customer != nil {
		ev.Email = b.Customer.Metadata.Email
	}
	switch b.Status {
	case BillingPaid:
		ev.Kind, ev.RawName = KindPurchaseApproved, "billing.paid"
	case BillingExpired, BillingCancelled:
		ev.Kind, ev.RawName = KindExpired, "billing.expired"
	default:
		return nil
	}
	ev.ID = "reconcile:" + ev.RawName + ":" + b.ID
	return ev
}
