package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"dirigia/internal/apperr"
	"dirigia/internal/capture"
	"dirigia/internal/document"
	"dirigia/internal/imageprep"
	"dirigia/internal/llm"
	"dirigia/internal/model"
	"dirigia/internal/repository"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Upload is a file received for extraction.
type Upload struct {
	Name string
	Data []byte
}

// OcrService reads fine notices.
type OcrService interface {
	Extract(ctx context.Context, userID string, up Upload) (*llm.OcrFields, error)
}

type ocrService struct {
	extractor llm.Extractor
	repo      repository.OcrRawRepository
	maxSide   int
	group     singleflight.Group
	logger    zerolog.Logger
}

func NewOcrService(extractor llm.Extractor, repo repository.OcrRawRepository, maxSide int, logger zerolog.Logger) OcrService {
	if maxSide <= 0 {
		maxSide = imageprep.DefaultMaxSide
	}
	return &ocrService{
		extractor: extractor,
		repo:      repo,
		maxSide:   maxSide,
		logger:    logger.With().Str("service", "OcrService").Logger(),
	}
}

// sniff returns the detected MIME type without parameters.
func sniff(data []byte) string {
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return mime
}

func (s *ocrService) Extract(ctx context.Context, userID string, up Upload) (*llm.OcrFields, error) {
	mime := ""
	if len(up.Data) > 0 {
		mime = sniff(up.Data)
	}
	if err := capture.ValidateFile(capture.FileInfo{Name: up.Name, MIME: mime, Size: int64(len(up.Data))}); err != nil {
		if r, ok := capture.AsRejection(err); ok {
			return nil, apperr.Wrap(apperr.KindValidation, r.Message, err)
		}
		return nil, err
	}

	sum := sha256.Sum256(up.Data)
	key := userID + ":" + hex.EncodeToString(sum[:])
	v, err, shared := s.group.Do(key, func() (any, error) {
		callCtx, cancel := detached(ctx)
		defer cancel()
		return s.extract(callCtx, userID, up, mime)
	})
	if shared {
		s.logger.Info().Str("user_id", userID).Msg("Collapsed duplicate extraction")
	}
	if err != nil {
		return nil, err
	}
	fields := *v.(*llm.OcrFields)
	return &fields, nil
}

func (s *ocrService) extract(ctx context.Context, userID string, up Upload, mime string) (*llm.OcrFields, error) {
	data := up.Data
	switch mime {
	case "application/pdf":
		page, err := document.FirstPage(data)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Não foi possível ler o PDF enviado.", err)
		}
		data = page
	default:
		scaled, scaledMIME, err := imageprep.Downscale(data, mime, s.maxSide)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Não foi possível ler a imagem enviada.", err)
		}
		data, mime = scaled, scaledMIME
	}

	raw, err := s.extractor.Extract(ctx, llm.Document{Name: up.Name, MIME: mime, Data: data})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Extraction call failed")
		return nil, err
	}

	fields, err := llm.ParseOcr(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Unparseable extraction answer")
		return nil, apperr.Wrap(apperr.KindNotAFine, MsgNotAFine, err)
	}
	if !fields.IsTrafficFine {
		return nil, apperr.New(apperr.KindNotAFine, MsgNotAFine)
	}
	fields.DataInfracao = NormalizeOcrDate(fields.DataInfracao)

	row := &model.OcrRaw{UserID: userID, UploadedFileURL: up.Name, ExtractedText: json.RawMessage(raw)}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store extraction audit row")
	}
	return fields, nil
}
