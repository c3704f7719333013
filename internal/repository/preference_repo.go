package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dirigia/internal/model"
)

type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*model.Preferences, error)
	Upsert(ctx context.Context, p *model.Preferences) error
}

type preferenceRepo struct {
	db *sql.DB
}

func NewPreferenceRepo(db *sql.DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	var p model.Preferences
	query := `SELECT user_id::text, version, camera_primed_at, file_primed_at, updated_at
              FROM user_preferences WHERE user_id = $1`
	var camera, file sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Version, &camera, &file, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching preferences for user %s: %w", userID, err)
	}
	if camera.Valid {
		p.CameraPrimedAt = &camera.Time
	}
	if file.Valid {
		p.FilePrimedAt = &file.Time
	}
	return &p, nil
}

func (r *preferenceRepo) Upsert(ctx context.Context, p *model.Preferences) error {
	query := `
        INSERT INTO user_preferences (user_id, version, camera_primed_at, file_primed_at, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (user_id) DO UPDATE
        SET version = EXCLUDED.version,
            camera_primed_at = EXCLUDED.camera_primed_at,
            file_primed_at = EXCLUDED.file_primed_at,
            updated_at = now()
        RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.Version, p.CameraPrimedAt, p.FilePrimedAt).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting preferences for user %s: %w", p.UserID, err)
	}
	return nil
}
