package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"dirigia/internal/apperr"
	"dirigia/internal/document"
	"dirigia/internal/model"
	"dirigia/internal/repository"
	"dirigia/internal/storage"

	"github.com/rs/zerolog"
)

// ExportURLTTL is how long an archived PDF link stays valid.
const ExportURLTTL = 15 * time.Minute

// Export formats.
const (
	FormatTXT = "txt"
	FormatPDF = "pdf"
)

// Entitlement is the caller's current access level.
type Entitlement struct {
	IsPremium      bool
	Plan           model.Plan
	ResourcesCount int
	CheckoutURL    string
}

// ResourceView is a resource as the caller may see it.
type ResourceView struct {
	Resource  model.Resource
	Text      string
	Truncated bool
}

// ExportFile is a downloadable rendition of a resource.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// EntitlementService gates access to generated letters by plan.
type EntitlementService interface {
	Status(ctx context.Context, userID string) (*Entitlement, error)
	CheckoutURL() string
	Get(ctx context.Context, userID, resourceID string) (*ResourceView, error)
	List(ctx context.Context, userID string, limit, offset int) ([]ResourceView, error)
	Delete(ctx context.Context, userID, resourceID string) error
	Export(ctx context.Context, userID, resourceID, format string) (*ExportFile, error)
	// Archive renders the PDF, stores it and returns a temporary download link.
	Archive(ctx context.Context, userID, resourceID string) (string, error)
}

type entitlementService struct {
	profiles     repository.ProfileRepository
	resources    repository.ResourceRepository
	store        storage.Store
	previewLimit int
	checkoutURL  string
	logger       zerolog.Logger
}

// NewEntitlementService creates the gate. store may be nil when archiving is disabled.
func NewEntitlementService(
	profiles repository.ProfileRepository,
	resources repository.ResourceRepository,
	store storage.Store,
	previewLimit int,
	appBaseURL string,
	logger zerolog.Logger,
) EntitlementService {
	return &entitlementService{
		profiles:     profiles,
		resources:    resources,
		store:        store,
		previewLimit: previewLimit,
		checkoutURL:  CheckoutURL(appBaseURL),
		logger:       logger.With().Str("service", "EntitlementService").Logger(),
	}
}

// CheckoutURL is where the client sends a user to subscribe.
func CheckoutURL(appBaseURL string) string {
	return strings.TrimRight(appBaseURL, "/") + "/subscribe"
}

func (s *entitlementService) CheckoutURL() string { return s.checkoutURL }

// profile reads the plan fresh on every call.
func (s *entitlementService) profile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	if p == nil {
		return nil, apperr.New(apperr.KindNotFound, MsgProfileNotFound)
	}
	return p, nil
}

func (s *entitlementService) requirePremium(ctx context.Context, userID string) error {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return err
	}
	if !p.IsPremium() {
		return apperr.New(apperr.KindEntitlement, MsgPremiumRequired)
	}
	return nil
}

func (s *entitlementService) Status(ctx context.Context, userID string) (*Entitlement, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Entitlement{
		IsPremium:      p.IsPremium(),
		Plan:           p.Plan,
		ResourcesCount: p.ResourcesCount,
		CheckoutURL:    s.checkoutURL,
	}, nil
}

func (s *entitlementService) view(r model.Resource, premium bool) ResourceView {
	if premium {
		return ResourceView{Resource: r, Text: r.GeneratedText}
	}
	text, cut := document.Preview(r.GeneratedText, s.previewLimit)
	return ResourceView{Resource: r, Text: text, Truncated: cut}
}

func (s *entitlementService) resource(ctx context.Context, userID, resourceID string) (*model.Resource, error) {
	r, err := s.resources.GetByID(ctx, userID, resourceID)
	if err != nil {
		return nil, persistence(err)
	}
	if r == nil {
		return nil, apperr.New(apperr.KindNotFound, MsgResourceNotFound)
	}
	return r, nil
}

func (s *entitlementService) Get(ctx context.Context, userID, resourceID string) (*ResourceView, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	r, err := s.resource(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}
	v := s.view(*r, p.IsPremium())
	return &v, nil
}

func (s *entitlementService) List(ctx context.Context, userID string, limit, offset int) ([]ResourceView, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	rs, err := s.resources.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, persistence(err)
	}
	out := make([]ResourceView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.view(r, p.IsPremium()))
	}
	return out, nil
}

func (s *entitlementService) Delete(ctx context.Context, userID, resourceID string) error {
	ok, err := s.resources.Delete(ctx, userID, resourceID)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return apperr.New(apperr.KindNotFound, MsgResourceNotFound)
	}
	return nil
}

func (s *entitlementService) Export(ctx context.Context, userID, resourceID, format string) (*ExportFile, error) {
	if format != FormatTXT && format != FormatPDF {
		return nil, validation("Formato de exportação inválido. Use txt ou pdf.")
	}
	if err := s.requirePremium(ctx, userID); err != nil {
		return nil, err
	}
	r, err := s.resource(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	if format == FormatTXT {
		return &ExportFile{
			Filename:    document.Filename(r.DisplayName(), FormatTXT),
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(r.GeneratedText),
		}, nil
	}
	body, err := renderPDF(r.GeneratedText)
	if err != nil {
		s.logger.Error().Err(err).Str("resource_id", resourceID).Msg("Failed to render PDF")
		return nil, persistence(err)
	}
	return &ExportFile{
		Filename:    document.Filename(r.DisplayName(), FormatPDF),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func (s *entitlementService) Archive(ctx context.Context, userID, resourceID string) (string, error) {
	if s.store == nil {
		return "", apperr.New(apperr.KindUpstream, MsgStorageDisabled)
	}
	if err := s.requirePremium(ctx, userID); err != nil {
		return "", err
	}
	r, err := s.resource(ctx, userID, resourceID)
	if err != nil {
		return "", err
	}

	key := storage.ExportKey(userID, r.ID)
	if r.PdfURL == nil || *r.PdfURL != key {
		body, err := renderPDF(r.GeneratedText)
		if err != nil {
			return "", persistence(err)
		}
		if err := s.store.Put(ctx, key, "application/pdf", body); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload PDF")
			return "", apperr.Wrap(apperr.KindUpstream, MsgStorageDisabled, err)
		}
		if err := s.resources.SetPdfURL(ctx, userID, r.ID, key); err != nil {
			return "", persistence(err)
		}
	}

	link, err := s.store.PresignGet(ctx, key, ExportURLTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to presign PDF")
		return "", apperr.Wrap(apperr.KindUpstream, MsgStorageDisabled, err)
	}
	return link, nil
}

func renderPDF(text string) ([]byte, error) {
	var buf bytes.Buffer
	if err := document.RenderPDF(&buf, text); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
