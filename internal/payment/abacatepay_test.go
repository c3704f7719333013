package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbacatePayCreateBilling(t *testing.T) {
	var got BillingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/billing/create", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"data":{"id":"bill_1","url":"https://pay/bill_1","amount":4990,"status":"PENDING"},"error":null}`)
	}))
	defer srv.Close()

	c := NewAbacatePayClient("key", srv.URL, time.Second)
	b, err := c.CreateBilling(context.Background(), BillingRequest{
		Frequency: "ONE_TIME",
		Methods:   []string{"PIX"},
		Products:  []Product{{ExternalID: "user-1", Name: "Plano Mensal", Quantity: 1, Price: 4990}},
		Customer:  &Customer{Name: "Ana", Email: "ana@example.com", Cellphone: "11999990000", TaxID: "12345678901"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bill_1", b.ID)
	assert.Equal(t, "https://pay/bill_1", b.URL)
	assert.Equal(t, "user-1", got.Products[0].ExternalID)
	assert.Equal(t, []string{"PIX"}, got.Methods)
}

func TestAbacatePayErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"data":null,"error":"Invalid API key"}`)
	}))
	defer srv.Close()

	_, err := NewAbacatePayClient("bad", srv.URL, time.Second).ListBillings(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}

func TestAbacatePayFindBillingAndSimulate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/billing/list":
			_, _ = io.WriteString(w, `{"data":[{"id":"bill_1","status":"PENDING"},{"id":"bill_2","status":"PAID","amount":4990}],"error":null}`)
		case "/v1/pixQrCode/simulate-payment":
			assert.Equal(t, "bill_2", r.URL.Query().Get("id"))
			_, _ = io.WriteString(w, `{"data":{"id":"bill_2","status":"PAID"},"error":null}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewAbacatePayClient("key", srv.URL, time.Second)

	b, err := c.FindBilling(context.Background(), "bill_2")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, BillingPaid, b.Status)

	missing, err := c.FindBilling(context.Background(), "bill_404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	data, err := c.SimulatePayment(context.Background(), "bill_2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"bill_2","status":"PAID"}`, string(data))
}

func TestAbacatePayNormalize(t *testing.T) {
	body := `{"id":"log_1","event":"billing.paid","devMode":true,"data":{"billing":{"id":"bill_1","amount":14990,"status":"PAID",
		"products":[{"externalId":"user-1","quantity":1,"price":14990}],"customer":{"id":"cust_1","metadata":{"email":"ana@example.com"}}}}}`

	n := NewAbacatePayNormalizer("tok")
	ev, err := n.Normalize(Delivery{Body: []byte(body), Query: url.Values{"webhookSecret": {"tok"}}})
	require.NoError(t, err)
	assert.Equal(t, "log_1", ev.ID)
	assert.Equal(t, KindPurchaseApproved, ev.Kind)
	assert.Equal(t, "bill_1", ev.BillingID)
	assert.Equal(t, "user-1", ev.UserID)
	assert.Equal(t, "ana@example.com", ev.Email)
	assert.Equal(t, int64(14990), ev.Amount)

	_, err = n.Normalize(Delivery{Body: []byte(body), Query: url.Values{"webhookSecret": {"wrong"}}})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = n.Normalize(Delivery{Body: []byte(`{"data":{}}`), Query: url.Values{"webhookSecret": {"tok"}}})
	assert.ErrorIs(t, err, ErrMissingEvent)
}

func TestEventFromBilling(t *testing.T) {
	now := time.Now()
	paid := EventFromBilling(&Billing{ID: "bill_1", Status: BillingPaid, Amount: 4990}, "user-1", now)
	require.NotNil(t, paid)
	assert.Equal(t, KindPurchaseApproved, paid.Kind)
	assert.Equal(t, "user-1", paid.UserID)

	expired := EventFromBilling(&Billing{ID: "bill_2", Status: BillingCancelled}, "user-1", now)
	require.NotNil(t, expired)
	assert.Equal(t, KindExpired, expired.Kind)

	assert.Nil(t, EventFromBilling(&Billing{ID: "bill_3", Status: BillingPending}, "user-1", now))
}
