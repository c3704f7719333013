package model

import "time"

// CaptureMode identifies one of the two upload paths.
type CaptureMode string

const (
	CaptureCamera CaptureMode = "camera"
	CaptureFile   CaptureMode = "file"
)

// PreferencesVersion is bumped whenever the stored schema changes; older rows are ignored.
const PreferencesVersion = 1

// Preferences records when each capture mode's permission-priming dialog was accepted.
type Preferences struct {
	UserID         string     `db:"user_id" json:"-"`
	Version        int        `db:"version" json:"version"`
	CameraPrimedAt *time.Time `db:"camera_primed_at" json:"camera_primed_at,omitempty"`
	FilePrimedAt   *time.Time `db:"file_primed_at" json:"file_primed_at,omitempty"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
