package handler

import (
	"errors"
	"io"
	"net/http"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/apperr"
	"dirigia/internal/payment"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider notifications. Routes are unauthenticated; each
// provider's secret or signature is checked by its normalizer.
type WebhookHandler struct {
	normalizers payment.Registry
	webhooks    service.WebhookService
	logger      zerolog.Logger
}

func NewWebhookHandler(normalizers payment.Registry, webhooks service.WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		normalizers: normalizers,
		webhooks:    webhooks,
		logger:      logger.With().Str("handler", "WebhookHandler").Logger(),
	}
}

// RegisterRoutes registers the webhook endpoint.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/{provider}", h.Receive)
}

// Receive godoc
// @Summary Receive a payment provider webhook
// @Description provider is cakto, abacatepay or stripe. Re-deliveries are acknowledged without being applied twice.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider"
// @Success 200 {object} dto.WebhookResponseDTO
// @Failure 400 {object} dto.WebhookResponseDTO "invalid payload"
// @Failure 401 {object} dto.WebhookResponseDTO "bad secret or signature"
// @Failure 404 {object} dto.WebhookResponseDTO "unknown provider"
// @Failure 500 {object} dto.WebhookResponseDTO "not applied, retry"
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	log := h.logger.With().Str("provider", provider).Logger()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.WebhookResponseDTO{Error: "Invalid payload"})
		return
	}

	ev, err := h.normalizers.Normalize(provider, payment.Delivery{Body: body, Header: r.Header, Query: r.URL.Query()})
	switch {
	case errors.Is(err, payment.ErrUnknownProvider):
		writeJSON(w, http.StatusNotFound, dto.WebhookResponseDTO{Error: "Unknown provider"})
		return
	case errors.Is(err, payment.ErrUnauthorized):
		log.Warn().Msg("Webhook authentication failed")
		writeJSON(w, http.StatusUnauthorized, dto.WebhookResponseDTO{Error: "Unauthorized"})
		return
	case errors.Is(err, payment.ErrMissingEvent):
		writeJSON(w, http.StatusBadRequest, dto.WebhookResponseDTO{Error: "Invalid payload - missing event"})
		return
	case err != nil:
		log.Warn().Err(err).Int("bytes", len(body)).Msg("Could not normalize webhook, acknowledging")
		writeJSON(w, http.StatusOK, dto.WebhookResponseDTO{Success: true, Message: "Webhook received"})
		return
	}

	log = log.With().Str("event", ev.RawName).Str("event_id", ev.ID).Str("billing_id", ev.BillingID).Logger()
	res, err := h.webhooks.Apply(r.Context(), ev)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			log.Warn().Err(err).Msg("Webhook rejected")
			writeJSON(w, http.StatusBadRequest, dto.WebhookResponseDTO{Error: apperr.MessageOf(err)})
			return
		}
		log.Error().Err(err).Msg("Failed to apply webhook")
		writeJSON(w, http.StatusInternalServerError, dto.WebhookResponseDTO{Error: apperr.MessageOf(err)})
		return
	}
	log.Info().Bool("duplicate", res.Duplicate).Msg(res.Message)
	writeJSON(w, http.StatusOK, dto.WebhookResponseDTO{Success: true, Message: res.Message})
}
