package handler

import (
	"io"
	"net/http"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/apperr"
	"dirigia/internal/capture"
	"dirigia/internal/llm"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
)

// OcrHandler reads uploaded fine notices.
type OcrHandler struct {
	ocr      service.OcrService
	profiles service.ProfileService
	logger   zerolog.Logger
}

func NewOcrHandler(ocr service.OcrService, profiles service.ProfileService, logger zerolog.Logger) *OcrHandler {
	return &OcrHandler{ocr: ocr, profiles: profiles, logger: logger}
}

// RegisterRoutes mounts the OCR endpoint.
func (h *OcrHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /ocr", authMw(http.HandlerFunc(h.Extract)))
	mux.HandleFunc("GET /ocr/guide", h.Guide)
}

// Guide godoc
// @Summary Crop guide for the camera viewfinder
// @Tags ocr
// @Produce json
// @Param w query int true "Viewport width"
// @Param h query int true "Viewport height"
// @Success 200 {object} capture.CropGuide
// @Router /ocr/guide [get]
func (h *OcrHandler) Guide(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, capture.Guide(queryInt(r, "w", 0, 0), queryInt(r, "h", 0, 0)))
}

// Extract godoc
// @Summary Extract the fields of a traffic fine notice
// @Description Accepts a PDF, JPG or PNG up to 10 MB in the multipart field "file" and returns the fields read by the vision model.
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Fine notice"
// @Success 200 {object} dto.OcrResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "invalid file or not a traffic fine"
// @Failure 401 {object} dto.ErrorResponseDTO "unauthorized"
// @Failure 402 {object} dto.ErrorResponseDTO "model quota exhausted"
// @Failure 429 {object} dto.ErrorResponseDTO "model rate limited"
// @Failure 502 {object} dto.ErrorResponseDTO "model unavailable"
// @Router /ocr [post]
func (h *OcrHandler) Extract(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	// Leave room for the multipart envelope; the service enforces the exact limit.
	r.Body = http.MaxBytesReader(w, r.Body, capture.MaxFileSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.KindValidation, "Envie o arquivo no campo \"file\".", err), "")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, capture.MaxFileSize+1))
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.KindValidation, "Não foi possível ler o arquivo.", err), "")
		return
	}

	fields, err := h.ocr.Extract(r.Context(), userID, service.Upload{Name: header.Filename, Data: data})
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.OcrResponseDTO{Success: true, ExtractedData: toOcrDTO(fields)})
}

func toOcrDTO(f *llm.OcrFields) dto.OcrFieldsDTO {
	return dto.OcrFieldsDTO{
		IsTrafficFine:    f.IsTrafficFine,
		AitNumber:        f.AitNumber,
		DataInfracao:     f.DataInfracao,
		Local:            f.Local,
		Placa:            f.Placa,
		Renavam:          f.Renavam,
		Artigo:           f.Artigo,
		OrgaoAutuador:    f.OrgaoAutuador,
		NomeCondutor:     f.NomeCondutor,
		CpfCondutor:      f.CpfCondutor,
		EnderecoCondutor: f.EnderecoCondutor,
	}
}

func fromOcrDTO(d dto.OcrFieldsDTO) llm.OcrFields {
	return llm.OcrFields{
		IsTrafficFine:    d.IsTrafficFine,
		AitNumber:        d.AitNumber,
		DataInfracao:     d.DataInfracao,
		Local:            d.Local,
		Placa:            d.Placa,
		Renavam:          d.Renavam,
		Artigo:           d.Artigo,
		OrgaoAutuador:    d.OrgaoAutuador,
		NomeCondutor:     d.NomeCondutor,
		CpfCondutor:      d.CpfCondutor,
		EnderecoCondutor: d.EnderecoCondutor,
	}
}
