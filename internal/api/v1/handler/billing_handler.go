package handler

import (
	"net/http"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/middleware"
	"dirigia/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BillingHandler starts purchases and exposes payment history.
type BillingHandler struct {
	checkout service.CheckoutService
	profiles service.ProfileService
	validate *validator.Validate
	devMode  bool
	logger   zerolog.Logger
}

// NewBillingHandler creates a BillingHandler. devMode exposes the provider sandbox helpers.
func NewBillingHandler(
	checkout service.CheckoutService,
	profiles service.ProfileService,
	v *validator.Validate,
	devMode bool,
	logger zerolog.Logger,
) *BillingHandler {
	return &BillingHandler{checkout: checkout, profiles: profiles, validate: v, devMode: devMode, logger: logger}
}

// RegisterRoutes registers the billing endpoints.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /billing/checkout", authMw(http.HandlerFunc(h.Checkout)))
	mux.Handle("GET /payments", authMw(http.HandlerFunc(h.Payments)))
	if h.devMode {
		mux.Handle("GET /billing/list", authMw(http.HandlerFunc(h.ListBillings)))
		mux.Handle("POST /payments/{billingId}/simulate", authMw(http.HandlerFunc(h.Simulate)))
	}
}

// Checkout godoc
// @Summary Start a purchase
// @Description PIX goes through AbacatePay and requires customerData. Cards go to the configured card provider.
// @Tags billing
// @Accept json
// @Produce json
// @Param checkout body dto.CheckoutRequestDTO true "Checkout request"
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "invalid request payload"
// @Failure 401 {object} dto.ErrorResponseDTO "unauthorized"
// @Failure 502 {object} dto.ErrorResponseDTO "payment provider unavailable"
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	var req dto.CheckoutRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, invalid(err), "")
		return
	}

	in := service.CheckoutRequest{
		UserID: userID,
		Plan:   req.Plan,
		Method: req.PaymentMethod,
	}
	if c := middleware.ClaimsFrom(r.Context()); c != nil {
		in.Email, in.Name = c.Email, c.DisplayName()
	}
	if cd := req.CustomerData; cd != nil {
		in.Customer = &service.CustomerData{Name: cd.Name, Phone: dto.Digits(cd.Phone), CPF: dto.Digits(cd.CPF)}
		if in.Name == "" {
			in.Name = cd.Name
		}
	}

	res, err := h.checkout.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.CheckoutResponseDTO{
		Success:    true,
		BillingURL: res.BillingURL,
		BillingID:  res.BillingID,
		Provider:   res.Provider,
	})
}

// Payments godoc
// @Summary List the caller's payments
// @Tags billing
// @Produce json
// @Success 200 {array} dto.PaymentResponseDTO
// @Router /payments [get]
func (h *BillingHandler) Payments(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	ps, err := h.checkout.ListPayments(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	out := make([]dto.PaymentResponseDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, dto.PaymentResponseDTO{
			ID:            p.ID,
			BillingID:     p.BillingID,
			Plan:          p.Plan,
			Amount:        p.Amount,
			Status:        string(p.Status),
			PaymentMethod: p.PaymentMethod,
			PaidAt:        p.PaidAt,
			CreatedAt:     p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListBillings godoc
// @Summary Proxy the AbacatePay billing list (development only)
// @Tags billing
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /billing/list [get]
func (h *BillingHandler) ListBillings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.checkout.ListBillings(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Simulate godoc
// @Summary Simulate a PIX payment in AbacatePay dev mode (development only)
// @Tags billing
// @Produce json
// @Param billingId path string true "Billing ID"
// @Success 200 {object} map[string]interface{}
// @Router /payments/{billingId}/simulate [post]
func (h *BillingHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	raw, err := h.checkout.SimulatePayment(r.Context(), r.PathValue("billingId"))
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
