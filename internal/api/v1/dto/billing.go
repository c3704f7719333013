package dto

import "time"

// CustomerDataDTO is the payer identity PIX requires.
type CustomerDataDTO struct {
	Name  string `json:"name" validate:"required,min=3,max=120"`
	Phone string `json:"phone" validate:"required,br_phone"`
	CPF   string `json:"cpf" validate:"required,cpf"`
}

// CheckoutRequestDTO starts a purchase.
type CheckoutRequestDTO struct {
	Plan          string           `json:"plan" validate:"required,oneof=monthly annual"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,oneof=PIX CREDIT_CARD DEBIT_CARD"`
	CustomerData  *CustomerDataDTO `json:"customerData" validate:"required_if=PaymentMethod PIX"`
}

// CheckoutResponseDTO points the client at the hosted payment page.
type CheckoutResponseDTO struct {
	Success    bool   `json:"success"`
	BillingURL string `json:"billingUrl"`
	BillingID  string `json:"billingId,omitempty"`
	Provider   string `json:"provider"`
}

// PaymentResponseDTO is one row of the caller's payment history.
type PaymentResponseDTO struct {
	ID            string     `json:"id"`
	BillingID     string     `json:"billingId"`
	Plan          string     `json:"plan"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"paymentMethod"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// WebhookResponseDTO acknowledges a provider delivery.
type WebhookResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
