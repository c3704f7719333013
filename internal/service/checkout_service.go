package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/repository"

	"github.com/rs/zerolog"
)

const MsgCheckoutFailed = "Não foi possível iniciar o pagamento. Tente novamente."

// CustomerData is the payer identity PIX requires.
type CustomerData struct {
	Name  string
	Phone string
	CPF   string
}

// CheckoutRequest starts a purchase for the caller.
type CheckoutRequest struct {
	UserID   string
	Email    string
	Name     string
	Plan     string
	Method   string
	Customer *CustomerData
}

// CheckoutResult points the client at the hosted payment page.
type CheckoutResult struct {
	BillingURL string
	BillingID  string
	Provider   string
	Amount     int64
}

// ReconcileJob asks the reconcile worker to poll a PIX billing.
type ReconcileJob struct {
	BillingID string `json:"billing_id"`
	UserID    string `json:"user_id"`
	Attempt   int    `json:"attempt"`
}

// CheckoutOptions configure NewCheckoutService.
type CheckoutOptions struct {
	Prices         map[string]int64
	AppBaseURL     string
	ReconcileQueue string
	ReconcileDelay time.Duration
}

type CheckoutService interface {
	Create(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	ListPayments(ctx context.Context, userID string) ([]model.Payment, error)
	ListBillings(ctx context.Context) (json.RawMessage, error)
	SimulatePayment(ctx context.Context, billingID string) (json.RawMessage, error)
}

type checkoutService struct {
	pix      payment.AbacatePayClient
	card     payment.CardProvider
	payments repository.PaymentRepository
	queue    pgmq.Queue
	opts     CheckoutOptions
	logger   zerolog.Logger
}

// NewCheckoutService wires the providers. card and queue may be nil.
func NewCheckoutService(
	pix payment.AbacatePayClient,
	card payment.CardProvider,
	payments repository.PaymentRepository,
	queue pgmq.Queue,
	opts CheckoutOptions,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		pix:      pix,
		card:     card,
		payments: payments,
		queue:    queue,
		opts:     opts,
		logger:   logger.With().Str("service", "CheckoutService").Logger(),
	}
}

func planLabel(plan string) string {
	if plan == payment.PlanAnnual {
		return "Dirigia Premium Anual"
	}
	return "Dirigia Premium Mensal"
}

func (s *checkoutService) appURL(path, userID string) string {
	u := strings.TrimRight(s.opts.AppBaseURL, "/") + path
	if userID == "" {
		return u
	}
	return u + "?user=" + url.QueryEscape(userID)
}

func (s *checkoutService) Create(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	amount, ok := s.opts.Prices[req.Plan]
	if !ok {
		return nil, validation("Plano inválido.")
	}
	switch req.Method {
	case model.MethodPix:
		return s.createPix(ctx, req, amount)
	case model.MethodCreditCard, model.MethodDebitCard:
		return s.createCard(ctx, req, amount)
	}
	return nil, validation("Método de pagamento inválido.")
}

func (s *checkoutService) createPix(ctx context.Context, req CheckoutRequest, amount int64) (*CheckoutResult, error) {
	if req.Customer == nil {
		return nil, validation("Dados do cliente são obrigatórios para PIX.")
	}
	if s.pix == nil {
		return nil, apperr.New(apperr.KindUpstream, MsgCheckoutFailed)
	}
	billing, err := s.pix.CreateBilling(ctx, payment.BillingRequest{
		Frequency: "ONE_TIME",
		Methods:   []string{model.MethodPix},
		Products: []payment.Product{{
			ExternalID: req.UserID,
			Name:       planLabel(req.Plan),
			Quantity:   1,
			Price:      amount,
		}},
		ReturnURL:     s.appURL("/subscribe", req.UserID),
		CompletionURL: s.appURL("/subscribe/success", req.UserID),
		Customer: &payment.Customer{
			Name:      req.Customer.Name,
			Cellphone: req.Customer.Phone,
			Email:     req.Email,
			TaxID:     req.Customer.CPF,
		},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create PIX billing")
		return nil, apperr.Wrap(apperr.KindUpstream, MsgCheckoutFailed, err)
	}

	row := &model.Payment{
		UserID:        req.UserID,
		BillingID:     billing.ID,
		Plan:          req.Plan,
		Amount:        amount,
		PaymentMethod: model.MethodPix,
	}
	if _, err := s.payments.InsertPendingIfAbsent(ctx, row); err != nil {
		s.logger.Error().Err(err).Str("billing_id", billing.ID).Msg("Failed to store pending payment")
		return nil, persistence(err)
	}
	s.enqueueReconcile(ctx, ReconcileJob{BillingID: billing.ID, UserID: req.UserID, Attempt: 1})

	return &CheckoutResult{
		BillingURL: billing.URL,
		BillingID:  billing.ID,
		Provider:   payment.ProviderAbacatePay,
		Amount:     amount,
	}, nil
}

// enqueueReconcile is best effort; the webhook remains the primary path.
func (s *checkoutService) enqueueReconcile(ctx context.Context, job ReconcileJob) {
	if s.queue == nil || s.opts.ReconcileQueue == "" {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	if _, err := s.queue.Send(ctx, s.opts.ReconcileQueue, data, s.opts.ReconcileDelay); err != nil {
		s.logger.Error().Err(err).Str("billing_id", job.BillingID).Msg("Failed to enqueue reconcile job")
	}
}

func (s *checkoutService) createCard(ctx context.Context, req CheckoutRequest, amount int64) (*CheckoutResult, error) {
	if s.card == nil {
		return nil, apperr.New(apperr.KindUpstream, MsgCheckoutFailed)
	}
	name := req.Name
	if req.Customer != nil && req.Customer.Name != "" {
		name = req.Customer.Name
	}
	co, err := s.card.CreateCheckout(ctx, payment.CardCheckoutRequest{
		UserID:      req.UserID,
		Email:       req.Email,
		Name:        name,
		Plan:        req.Plan,
		Amount:      amount,
		SuccessURL:  s.appURL("/subscribe/success", ""),
		CancelURL:   s.appURL("/subscribe", ""),
		Description: planLabel(req.Plan),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Str("provider", s.card.Name()).Msg("Failed to create card checkout")
		return nil, apperr.Wrap(apperr.KindUpstream, MsgCheckoutFailed, err)
	}
	return &CheckoutResult{BillingURL: co.URL, BillingID: co.BillingID, Provider: co.Provider, Amount: amount}, nil
}

func (s *checkoutService) ListPayments(ctx context.Context, userID string) ([]model.Payment, error) {
	ps, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	return ps, nil
}

func (s *checkoutService) ListBillings(ctx context.Context) (json.RawMessage, error) {
	if s.pix == nil {
		return nil, apperr.New(apperr.KindUpstream, MsgCheckoutFailed)
	}
	list, err := s.pix.ListBillings(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "Falha ao listar cobranças.", err)
	}
	return list.Raw, nil
}

func (s *checkoutService) SimulatePayment(ctx context.Context, billingID string) (json.RawMessage, error) {
	if billingID == "" {
		return nil, validation("pixQrCodeId é obrigatório.")
	}
	if s.pix == nil {
		return nil, apperr.New(apperr.KindUpstream, MsgCheckoutFailed)
	}
	data, err := s.pix.SimulatePayment(ctx, billingID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("Falha ao simular pagamento %s.", billingID), err)
	}
	return data, nil
}
