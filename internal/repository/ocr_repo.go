package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dirigia/internal/model"
)

// OcrRawRepository appends extraction audit rows.
type OcrRawRepository interface {
	Create(ctx context.Context, o *model.OcrRaw) error
}

type ocrRawRepo struct {
	db *sql.DB
}

func NewOcrRawRepo(db *sql.DB) OcrRawRepository {
	return &ocrRawRepo{db: db}
}

func (r *ocrRawRepo) Create(ctx context.Context, o *model.OcrRaw) error {
	query := `INSERT INTO ocr_raw (user_id, uploaded_file_url, extracted_text)
              VALUES ($1, $2, $3::jsonb) RETURNING id::text, created_at`
	err := r.db.QueryRowContext(ctx, query, o.UserID, o.UploadedFileURL, string(o.ExtractedText)).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ocr_raw for user %s: %w", o.UserID, err)
	}
	return nil
}
