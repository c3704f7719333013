package repository

import (
	"context"
	"errors"
	"fmt"

	"dirigia/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository reads and writes profiles rows.
type ProfileRepository interface {
	// EnsureProfile inserts the profile if missing and returns the stored row.
	EnsureProfile(ctx context.Context, p *model.Profile) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	// GetByEmail matches case-insensitively; webhook payloads carry the checkout email.
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	UpdateName(ctx context.Context, id, name string) (*model.Profile, error)
	SetPlan(ctx context.Context, id string, plan model.Plan) (bool, error)
	// Delete removes the profile and every row the user owns, keeping payments
	// detached for bookkeeping.
	Delete(ctx context.Context, id string) error
}

type profileRepo struct {
	pool *pgxpool.Pool
}

// NewProfileRepo creates a new ProfileRepository.
func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepo{pool: pool}
}

const profileColumns = `id::text, name, email, plan, resources_count, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Plan, &p.ResourcesCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) EnsureProfile(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	const q = `
		INSERT INTO profiles (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, p.ID, p.Name, p.Email); err != nil {
		return nil, fmt.Errorf("ensuring profile %s: %w", p.ID, err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", id, err)
	}
	return p, nil
}

func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		return nil, fmt.Errorf("fetching profile by email %s: %w", email, err)
	}
	return p, nil
}

func (r *profileRepo) UpdateName(ctx context.Context, id, name string) (*model.Profile, error) {
	q := `UPDATE profiles SET name = $2, updated_at = now() WHERE id = $1 RETURNING ` + profileColumns
	p, err := scanProfile(r.pool.QueryRow(ctx, q, id, name))
	if err != nil {
		return nil, fmt.Errorf("updating name of profile %s: %w", id, err)
	}
	return p, nil
}

func (r *profileRepo) SetPlan(ctx context.Context, id string, plan model.Plan) (bool, error) {
	const q = `UPDATE profiles SET plan = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, plan)
	if err != nil {
		return false, fmt.Errorf("setting plan %s on profile %s: %w", plan, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *profileRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction for profile deletion: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	stmts := []string{
		`DELETE FROM resources WHERE user_id = $1`,
		`DELETE FROM ocr_raw WHERE user_id = $1`,
		`DELETE FROM user_preferences WHERE user_id = $1`,
		`UPDATE payments SET user_id = NULL, updated_at = now() WHERE user_id = $1`,
		`DELETE FROM profiles WHERE id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("deleting data of profile %s: %w", id, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing deletion of profile %s: %w", id, err)
	}
	return nil
}
