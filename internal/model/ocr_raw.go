package model

import (
	"encoding/json"
	"time"
)

// OcrRaw is the append-only audit row of an accepted extraction.
// UploadedFileURL holds the original filename, not a storage reference.
type OcrRaw struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	UploadedFileURL string          `db:"uploaded_file_url" json:"uploaded_file_url"`
	ExtractedText   json.RawMessage `db:"extracted_text" json:"extracted_text"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
