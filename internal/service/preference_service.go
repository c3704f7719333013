package service

import (
	"context"
	"time"

	"dirigia/internal/capture"
	"dirigia/internal/model"
	"dirigia/internal/repository"
)

// PrimingState tells the client which capture modes can skip the priming dialog.
type PrimingState struct {
	Camera      bool
	File        bool
	Preferences *model.Preferences
}

type PreferenceService interface {
	Get(ctx context.Context, userID string) (*PrimingState, error)
	MarkPrimed(ctx context.Context, userID string, mode model.CaptureMode) (*PrimingState, error)
}

type preferenceService struct {
	repo repository.PreferenceRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewPreferenceService(repo repository.PreferenceRepository, ttl time.Duration) PreferenceService {
	if ttl <= 0 {
		ttl = capture.DefaultPrimingTTL
	}
	return &preferenceService{repo: repo, ttl: ttl, now: time.Now}
}

func (s *preferenceService) state(p *model.Preferences) *PrimingState {
	now := s.now()
	return &PrimingState{
		Camera:      capture.IsPrimed(p, model.CaptureCamera, now, s.ttl),
		File:        capture.IsPrimed(p, model.CaptureFile, now, s.ttl),
		Preferences: p,
	}
}

func (s *preferenceService) Get(ctx context.Context, userID string) (*PrimingState, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	return s.state(p), nil
}

func (s *preferenceService) MarkPrimed(ctx context.Context, userID string, mode model.CaptureMode) (*PrimingState, error) {
	if mode != model.CaptureCamera && mode != model.CaptureFile {
		return nil, validation("Modo de captura inválido.")
	}
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	next := capture.MarkPrimed(current, userID, mode, s.now())
	if err := s.repo.Upsert(ctx, next); err != nil {
		return nil, persistence(err)
	}
	return s.state(next), nil
}
