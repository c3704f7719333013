package service

import (
	"context"
	"testing"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureProfileIsStable(t *testing.T) {
	db := newMemDB()
	svc := NewProfileService(fakeProfiles{db}, zerolog.Nop())

	p, err := svc.Ensure(context.Background(), "u1", "ana@example.com", " Ana ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, model.PlanFree, p.Plan)

	db.profiles["u1"].Plan = model.PlanPremium
	p, err = svc.Ensure(context.Background(), "u1", "ana@example.com", "Outra")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPremium, p.Plan)
	assert.Equal(t, "Ana", p.Name)
}

func TestUpdateNameValidates(t *testing.T) {
	db := newMemDB()
	db.addProfile("u1", "ana@example.com", model.PlanFree)
	svc := NewProfileService(fakeProfiles{db}, zerolog.Nop())

	_, err := svc.UpdateName(context.Background(), "u1", "  a ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, err := svc.UpdateName(context.Background(), "u1", "Ana Lima")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", p.Name)

	_, err = svc.Get(context.Background(), "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMarkPrimed(t *testing.T) {
	db := newMemDB()
	svc := NewPreferenceService(fakePrefs{db}, 24*time.Hour).(*preferenceService)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	st, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.Camera)
	assert.False(t, st.File)

	st, err = svc.MarkPrimed(context.Background(), "u1", model.CaptureCamera)
	require.NoError(t, err)
	assert.True(t, st.Camera)
	assert.False(t, st.File)

	now = now.Add(25 * time.Hour)
	st, err = svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.Camera)

	_, err = svc.MarkPrimed(context.Background(), "u1", "microphone")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
