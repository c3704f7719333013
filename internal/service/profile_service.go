package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"dirigia/internal/apperr"
	"dirigia/internal/model"
	"dirigia/internal/repository"

	"github.com/rs/zerolog"
)

const maxNameLength = 120

type ProfileService interface {
	// Ensure creates the caller's profile on first use and returns it.
	Ensure(ctx context.Context, id, email, name string) (*model.Profile, error)
	Get(ctx context.Context, id string) (*model.Profile, error)
	UpdateName(ctx context.Context, id, name string) (*model.Profile, error)
	Delete(ctx context.Context, id string) error
}

type profileService struct {
	repo   repository.ProfileRepository
	logger zerolog.Logger
}

func NewProfileService(repo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger.With().Str("service", "ProfileService").Logger()}
}

func (s *profileService) Ensure(ctx context.Context, id, email, name string) (*model.Profile, error) {
	p, err := s.repo.EnsureProfile(ctx, &model.Profile{ID: id, Email: email, Name: strings.TrimSpace(name)})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to ensure profile")
		return nil, persistence(err)
	}
	if p == nil {
		return nil, apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	}
	return p, nil
}

func (s *profileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	if p == nil {
		return nil, apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	}
	return p, nil
}

func (s *profileService) UpdateName(ctx context.Context, id, name string) (*model.Profile, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 3 || utf8.RuneCountInString(name) > maxNameLength {
		return nil, validation("O nome deve ter entre 3 e 120 caracteres.")
	}
	p, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		return nil, persistence(err)
	}
	if p == nil {
		return nil, apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	}
	return p, nil
}

func (s *profileService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to delete profile")
		return persistence(err)
	}
	s.logger.Info().Str("user_id", id).Msg("Profile deleted")
	return nil
}
