package handler

import (
	"encoding/json"
	"net/http"

	"dirigia/internal/apperr"
	"dirigia/internal/middleware"
	"dirigia/internal/realtime"
	"dirigia/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// RealtimeHandler upgrades to a websocket that streams the caller's payment status
// and plan changes.
type RealtimeHandler struct {
	hub      *realtime.Hub
	payments repository.PaymentRepository
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, payments repository.PaymentRepository, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		payments: payments,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With().Str("handler", "RealtimeHandler").Logger(),
	}
}

func (h *RealtimeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /realtime", authMw(http.HandlerFunc(h.Stream)))
}

// Stream godoc
// @Summary Stream payment and plan updates
// @Description Websocket. Pass the token in access_token. With billingId the current status of that payment is sent first.
// @Tags realtime
// @Param billingId query string false "Billing ID owned by the caller"
// @Param access_token query string true "Bearer token"
// @Success 101
// @Failure 404 {object} dto.ErrorResponseDTO "payment not found"
// @Router /realtime [get]
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	billingID := r.URL.Query().Get("billingId")
	topics := []string{realtime.PlanTopic(userID)}
	if billingID != "" {
		topics = append(topics, realtime.PaymentTopic(billingID))
	}

	// Subscribe before reading the snapshot so no change can slip in between.
	sub := h.hub.Subscribe(topics...)
	var initial []byte
	if billingID != "" {
		p, err := h.payments.GetByBillingID(r.Context(), billingID)
		if err != nil {
			sub.Close()
			writeError(w, h.logger, apperr.Wrap(apperr.KindPersistence, apperr.GenericMessage, err), "")
			return
		}
		if p == nil || p.UserID != userID {
			sub.Close()
			writeError(w, h.logger, apperr.New(apperr.KindNotFound, "Pagamento não encontrado."), "")
			return
		}
		initial, _ = json.Marshal(realtime.PaymentUpdate{
			Type:      "payment",
			BillingID: p.BillingID,
			UserID:    p.UserID,
			Status:    string(p.Status),
			PaidAt:    p.PaidAt,
		})
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	realtime.Serve(conn, sub, initial, h.logger.With().Str("user_id", userID).Logger())
}
