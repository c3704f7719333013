package capture

import (
	"time"

	"dirigia/internal/model"
)

// DefaultPrimingTTL is how long an accepted priming dialog stays remembered.
const DefaultPrimingTTL = 180 * 24 * time.Hour

// IsPrimed reports whether the priming dialog for mode can be skipped.
// A stale schema version counts as not primed.
func IsPrimed(p *model.Preferences, mode model.CaptureMode, now time.Time, ttl time.Duration) bool {
	if p == nil || p.Version != model.PreferencesVersion {
		return false
	}
	var at *time.Time
	switch mode {
	case model.CaptureCamera:
		at = p.CameraPrimedAt
	case model.CaptureFile:
		at = p.FilePrimedAt
	}
	if at == nil {
		return false
	}
	return now.Before(at.Add(ttl))
}

// MarkPrimed records acceptance of the priming dialog for mode, upgrading p to the
// current schema version. A nil p starts from empty preferences.
func MarkPrimed(p *model.Preferences, userID string, mode model.CaptureMode, now time.Time) *model.Preferences {
	out := model.Preferences{UserID: userID, Version: model.PreferencesVersion}
	if p != nil && p.Version == model.PreferencesVersion {
		out.CameraPrimedAt = p.CameraPrimedAt
		out.FilePrimedAt = p.FilePrimedAt
	}
	t := now.UTC()
	switch mode {
	case model.CaptureCamera:
		out.CameraPrimedAt = &t
	case model.CaptureFile:
		out.FilePrimedAt = &t
	}
	return &out
}
