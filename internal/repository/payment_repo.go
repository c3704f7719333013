package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dirigia/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UpsertResult tells the caller what an idempotent write did.
type UpsertResult int

const (
	// Unchanged means a row with that billing_id already existed in a state that forbids the write.
	Unchanged UpsertResult = iota
	Inserted
	Updated
)

func (u UpsertResult) String() string {
	switch u {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// PaymentRepository owns payments rows. Every write is keyed on billing_id.
type PaymentRepository interface {
	// InsertPendingIfAbsent creates a PENDING row; an existing billing_id is left as is.
	InsertPendingIfAbsent(ctx context.Context, p *model.Payment) (bool, error)
	// ApprovePurchase flips the profile to premium and upserts the payment as PAID in one
	// transaction. Only a PENDING row is moved; a PAID row is left untouched.
	ApprovePurchase(ctx context.Context, p *model.Payment) (UpsertResult, error)
	// MarkExpired moves a PENDING row to EXPIRED.
	MarkExpired(ctx context.Context, billingID string) (bool, error)
	GetByBillingID(ctx context.Context, billingID string) (*model.Payment, error)
	// GetByProviderRef finds the row whose provider payment reference is ref.
	GetByProviderRef(ctx context.Context, ref string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]model.Payment, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a new PaymentRepository.
func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id::text, COALESCE(user_id::text, ''), billing_id, plan, amount, status, payment_method,
	br_code, provider_ref, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.BillingID, &p.Plan, &p.Amount, &p.Status, &p.PaymentMethod,
		&p.BrCode, &p.ProviderRef, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) InsertPendingIfAbsent(ctx context.Context, p *model.Payment) (bool, error) {
	const q = `
		INSERT INTO payments (user_id, billing_id, plan, amount, status, payment_method, br_code, provider_ref)
		VALUES ($1, $2, $3, $4, 'PENDING', $5, $6, $7)
		ON CONFLICT (billing_id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, nullIfEmpty(p.UserID), p.BillingID, p.Plan, p.Amount, p.PaymentMethod, p.BrCode,
		p.ProviderRef)
	if err != nil {
		return false, fmt.Errorf("inserting pending payment %s: %w", p.BillingID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentRepo) ApprovePurchase(ctx context.Context, p *model.Payment) (UpsertResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Unchanged, fmt.Errorf("starting transaction for approval %s: %w", p.BillingID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const planQ = `UPDATE profiles SET plan = 'premium', updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, planQ, p.UserID); err != nil {
		return Unchanged, fmt.Errorf("upgrading profile %s: %w", p.UserID, err)
	}

	paidAt := time.Now().UTC()
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	// xmax = 0 only for freshly inserted tuples.
	const upsertQ = `
		INSERT INTO payments (user_id, billing_id, plan, amount, status, payment_method, paid_at, provider_ref)
		VALUES ($1, $2, $3, $4, 'PAID', $5, $6, $7)
		ON CONFLICT (billing_id) DO UPDATE
		SET status = 'PAID',
		    paid_at = COALESCE(payments.paid_at, EXCLUDED.paid_at),
		    user_id = COALESCE(payments.user_id, EXCLUDED.user_id),
		    provider_ref = COALESCE(payments.provider_ref, EXCLUDED.provider_ref),
		    updated_at = now()
		WHERE payments.status = 'PENDING'
		RETURNING (xmax = 0)`
	var inserted bool
	err = tx.QueryRow(ctx, upsertQ, p.UserID, p.BillingID, p.Plan, p.Amount, p.PaymentMethod, paidAt,
		p.ProviderRef).Scan(&inserted)
	result := Updated
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		result = Unchanged
	case err != nil:
		return Unchanged, fmt.Errorf("upserting paid payment %s: %w", p.BillingID, err)
	case inserted:
		result = Inserted
	}

	if err := tx.Commit(ctx); err != nil {
		return Unchanged, fmt.Errorf("committing approval %s: %w", p.BillingID, err)
	}
	return result, nil
}

func (r *paymentRepo) MarkExpired(ctx context.Context, billingID string) (bool, error) {
	const q = `UPDATE payments SET status = 'EXPIRED', updated_at = now() WHERE billing_id = $1 AND status = 'PENDING'`
	tag, err := r.pool.Exec(ctx, q, billingID)
	if err != nil {
		return false, fmt.Errorf("expiring payment %s: %w", billingID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentRepo) GetByBillingID(ctx context.Context, billingID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE billing_id = $1`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, billingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching payment %s: %w", billingID, err)
	}
	return p, nil
}

func (r *paymentRepo) GetByProviderRef(ctx context.Context, ref string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_ref = $1 ORDER BY created_at DESC LIMIT 1`
	p, err := scanPayment(r.pool.QueryRow(ctx, q, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching payment by provider ref %s: %w", ref, err)
	}
	return p, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing payments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment for user %s: %w", userID, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments for user %s: %w", userID, err)
	}
	return out, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
