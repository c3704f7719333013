package model

import "time"

// PaymentStatus is the lifecycle state of a payment row.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentExpired PaymentStatus = "EXPIRED"
)

// IsFinal reports whether no further transition is allowed.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentPaid || s == PaymentExpired
}

// CanTransition reports whether a row in status s may move to next.
// Only PENDING->PAID and PENDING->EXPIRED exist; re-applying the same status is a no-op.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return true
	}
	return s == PaymentPending && next.IsFinal()
}

// PaymentMethod values as stored in payments.payment_method.
const (
	MethodPix        = "PIX"
	MethodCreditCard = "CREDIT_CARD"
	MethodDebitCard  = "DEBIT_CARD"
	MethodCakto      = "CAKTO"
	MethodStripe     = "STRIPE"
)

// Payment is keyed for idempotency by the provider's BillingID.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"user_id"`
	BillingID     string        `db:"billing_id" json:"billing_id"`
	Plan          string        `db:"plan" json:"plan"`
	Amount        int64         `db:"amount" json:"amount"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	BrCode        *string       `db:"br_code" json:"br_code,omitempty"`
	ProviderRef   *string       `db:"provider_ref" json:"provider_ref,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
