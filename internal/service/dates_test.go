package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeOcrDate(t *testing.T) {
	assert.Nil(t, NormalizeOcrDate(nil))
	assert.Equal(t, "2024-03-15", *NormalizeOcrDate(strPtr("15/03/2024")))
	assert.Equal(t, "2024-03-15", *NormalizeOcrDate(strPtr("2024-03-15")))
	assert.Equal(t, "março de 2024", *NormalizeOcrDate(strPtr("março de 2024")))
}

func TestCleanInfractionDate(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"nil", nil, ""},
		{"blank", strPtr("  "), ""},
		{"iso", strPtr("2024-03-15"), "2024-03-15"},
		{"slashes", strPtr("15/03/2024"), "2024-03-15"},
		{"dashes", strPtr("15-03-2024"), "2024-03-15"},
		{"today", strPtr("10/06/2024"), "2024-06-10"},
		{"future", strPtr("11/06/2024"), ""},
		{"impossible day", strPtr("31/02/2024"), ""},
		{"garbage", strPtr("ontem"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanInfractionDate(tt.in, now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestMonthWindow(t *testing.T) {
	start, end := monthWindow(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
