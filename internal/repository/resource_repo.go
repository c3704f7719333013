package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dirigia/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrResourceLimitReached is returned when a free profile exhausted its quota for the period.
	ErrResourceLimitReached = errors.New("resource_limit_reached")
	// ErrProfileNotFound is returned when the owning profile row does not exist.
	ErrProfileNotFound = errors.New("profile_not_found")
)

// Quota bounds how many resources a free profile may create within [Start, End).
// A zero Limit disables the check.
type Quota struct {
	Limit int
	Start time.Time
	End   time.Time
}

// ResourceRepository manages generated appeal letters.
type ResourceRepository interface {
	// CreateAndIncrement inserts the resource and bumps profiles.resources_count in one
	// transaction. The quota is re-checked under the profile row lock.
	CreateAndIncrement(ctx context.Context, res *model.Resource, quota Quota) error
	CountInRange(ctx context.Context, userID string, start, end time.Time) (int, error)
	GetByID(ctx context.Context, userID, id string) (*model.Resource, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Resource, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	SetPdfURL(ctx context.Context, userID, id, pdfURL string) error
}

type resourceRepo struct {
	pool *pgxpool.Pool
}

// NewResourceRepo creates a new ResourceRepository.
func NewResourceRepo(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepo{pool: pool}
}

const resourceColumns = `id::text, user_id::text, ait_number, placa, renavam, artigo, local, orgao_autuador,
	data_infracao, generated_text, pdf_url, created_at`

func scanResource(row pgx.Row) (*model.Resource, error) {
	var r model.Resource
	err := row.Scan(&r.ID, &r.UserID, &r.AitNumber, &r.Placa, &r.Renavam, &r.Artigo, &r.Local,
		&r.OrgaoAutuador, &r.DataInfracao, &r.GeneratedText, &r.PdfURL, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *resourceRepo) CreateAndIncrement(ctx context.Context, res *model.Resource, quota Quota) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("starting transaction for resource creation: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var plan model.Plan
	const lockQ = `SELECT plan FROM profiles WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQ, res.UserID).Scan(&plan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("locking profile %s: %w", res.UserID, err)
	}

	if plan != model.PlanPremium && quota.Limit > 0 {
		var count int
		const countQ = `
			SELECT COUNT(*)
			FROM resources
			WHERE user_id = $1
			  AND created_at >= $2
			  AND created_at < $3`
		if err := tx.QueryRow(ctx, countQ, res.UserID, quota.Start, quota.End).Scan(&count); err != nil {
			return fmt.Errorf("counting resources for user %s: %w", res.UserID, err)
		}
		if count >= quota.Limit {
			return ErrResourceLimitReached
		}
	}

	const insertQ = `
		INSERT INTO resources (id, user_id, ait_number, placa, renavam, artigo, local, orgao_autuador,
			data_infracao, generated_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, insertQ, res.ID, res.UserID, res.AitNumber, res.Placa, res.Renavam, res.Artigo,
		res.Local, res.OrgaoAutuador, res.DataInfracao, res.GeneratedText).Scan(&res.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting resource for user %s: %w", res.UserID, err)
	}

	const bumpQ = `UPDATE profiles SET resources_count = resources_count + 1, updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, bumpQ, res.UserID); err != nil {
		return fmt.Errorf("incrementing resources_count for user %s: %w", res.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing resource for user %s: %w", res.UserID, err)
	}
	return nil
}

func (r *resourceRepo) CountInRange(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var count int
	const q = `SELECT COUNT(*) FROM resources WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`
	if err := r.pool.QueryRow(ctx, q, userID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting resources for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *resourceRepo) GetByID(ctx context.Context, userID, id string) (*model.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 AND user_id = $2`
	res, err := scanResource(r.pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching resource %s: %w", id, err)
	}
	return res, nil
}

func (r *resourceRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Resource, error) {
	q := `SELECT ` + resourceColumns + `
		FROM resources
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing resources for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource for user %s: %w", userID, err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources for user %s: %w", userID, err)
	}
	return out, nil
}

func (r *resourceRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	const q = `DELETE FROM resources WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting resource %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *resourceRepo) SetPdfURL(ctx context.Context, userID, id, pdfURL string) error {
	const q = `UPDATE resources SET pdf_url = $3 WHERE id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, q, id, userID, pdfURL); err != nil {
		return fmt.Errorf("setting pdf_url of resource %s: %w", id, err)
	}
	return nil
}
