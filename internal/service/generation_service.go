package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/llm"
	"dirigia/internal/model"
	"dirigia/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// GenerationService drafts appeal letters and stores them.
type GenerationService interface {
	Generate(ctx context.Context, userID string, req llm.AppealRequest) (*model.Resource, error)
}

type generationService struct {
	generator llm.Generator
	profiles  repository.ProfileRepository
	resources repository.ResourceRepository
	freeLimit int
	group     singleflight.Group
	now       func() time.Time
	logger    zerolog.Logger
}

// NewGenerationService creates the service. freeLimit is the monthly allowance of a
// free profile; zero disables the limit.
func NewGenerationService(
	generator llm.Generator,
	profiles repository.ProfileRepository,
	resources repository.ResourceRepository,
	freeLimit int,
	logger zerolog.Logger,
) GenerationService {
	return &generationService{
		generator: generator,
		profiles:  profiles,
		resources: resources,
		freeLimit: freeLimit,
		now:       time.Now,
		logger:    logger.With().Str("service", "GenerationService").Logger(),
	}
}

func (s *generationService) quota() repository.Quota {
	start, end := monthWindow(s.now())
	return repository.Quota{Limit: s.freeLimit, Start: start, End: end}
}

func (s *generationService) checkLimit(ctx context.Context, userID string, q repository.Quota) error {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return persistence(err)
	}
	if p == nil {
		return apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	}
	if p.IsPremium() || q.Limit <= 0 {
		return nil
	}
	n, err := s.resources.CountInRange(ctx, userID, q.Start, q.End)
	if err != nil {
		return persistence(err)
	}
	if n >= q.Limit {
		return apperr.New(apperr.KindLimitReached, MsgLimitReached)
	}
	return nil
}

// sharedCallTimeout bounds work run under singleflight. Every waiting caller shares the
// result, so the work does not stop when the caller that started it goes away.
const sharedCallTimeout = 2 * time.Minute

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
}

func (s *generationService) Generate(ctx context.Context, userID string, req llm.AppealRequest) (*model.Resource, error) {
	req.Explanation = strings.TrimSpace(req.Explanation)
	req.Fields = req.Fields.Trimmed()
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(body)
	key := userID + ":" + hex.EncodeToString(sum[:])

	v, err, _ := s.group.Do(key, func() (any, error) {
		callCtx, cancel := detached(ctx)
		defer cancel()
		return s.generate(callCtx, userID, req)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*model.Resource)
	return &res, nil
}

func (s *generationService) generate(ctx context.Context, userID string, req llm.AppealRequest) (*model.Resource, error) {
	q := s.quota()
	if err := s.checkLimit(ctx, userID, q); err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Generation call failed")
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.KindUpstream, llm.EmptyAnswerMessage)
	}

	f := req.Fields
	res := &model.Resource{
		UserID:        userID,
		AitNumber:     f.AitNumber,
		Placa:         f.Placa,
		Renavam:       f.Renavam,
		Artigo:        f.Artigo,
		Local:         f.Local,
		OrgaoAutuador: f.OrgaoAutuador,
		DataInfracao:  CleanInfractionDate(f.DataInfracao, s.now()),
		GeneratedText: text,
	}
	switch err := s.resources.CreateAndIncrement(ctx, res, q); {
	case errors.Is(err, repository.ErrResourceLimitReached):
		return nil, apperr.New(apperr.KindLimitReached, MsgLimitReached)
	case errors.Is(err, repository.ErrProfileNotFound):
		return nil, apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store resource")
		return nil, persistence(err)
	}
	s.logger.Info().Str("user_id", userID).Str("resource_id", res.ID).Msg("Resource generated")
	return res, nil
}
