package service

import (
	"regexp"
	"strings"
	"time"
)

var brDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// NormalizeOcrDate rewrites DD/MM/YYYY as YYYY-MM-DD. Anything else is returned as is.
func NormalizeOcrDate(s *string) *string {
	if s == nil {
		return nil
	}
	m := brDate.FindStringSubmatch(strings.TrimSpace(*s))
	if m == nil {
		return s
	}
	out := m[3] + "-" + m[2] + "-" + m[1]
	return &out
}

var infractionLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// CleanInfractionDate parses the infraction date for storage. Unparseable,
// calendar-invalid and future dates yield nil.
func CleanInfractionDate(s *string, now time.Time) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range infractionLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if t.After(today) {
			return nil
		}
		return &t
	}
	return nil
}

// monthWindow returns the UTC calendar month containing now.
func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
