package handler

import (
	"net/http"
	"strconv"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/apperr"
	"dirigia/internal/llm"
	"dirigia/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ResourceHandler drafts appeals and serves them through the entitlement gate.
type ResourceHandler struct {
	generation  service.GenerationService
	entitlement service.EntitlementService
	profiles    service.ProfileService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewResourceHandler(
	generation service.GenerationService,
	entitlement service.EntitlementService,
	profiles service.ProfileService,
	v *validator.Validate,
	logger zerolog.Logger,
) *ResourceHandler {
	return &ResourceHandler{
		generation:  generation,
		entitlement: entitlement,
		profiles:    profiles,
		validate:    v,
		logger:      logger,
	}
}

// RegisterRoutes mounts v1 resource routes
func (h *ResourceHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /resources/arguments", http.HandlerFunc(h.Arguments))
	mux.Handle("POST /resources/generate", authMw(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /resources", authMw(http.HandlerFunc(h.List)))
	mux.Handle("GET /resources/{id}", authMw(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /resources/{id}", authMw(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /resources/{id}/export", authMw(http.HandlerFunc(h.Export)))
	mux.Handle("POST /resources/{id}/pdf", authMw(http.HandlerFunc(h.Archive)))
}

// Arguments godoc
// @Summary List the canned appeal arguments
// @Tags resources
// @Produce json
// @Success 200 {object} dto.ArgumentsResponseDTO
// @Router /resources/arguments [get]
func (h *ResourceHandler) Arguments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ArgumentsResponseDTO{Arguments: llm.Arguments})
}

// Generate godoc
// @Summary Draft an appeal letter
// @Description Drafts a formal appeal from the reviewed fine fields and stores it. Free accounts are limited per month.
// @Tags resources
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequestDTO true "Reviewed fields and the driver's account"
// @Success 200 {object} dto.GenerateResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "invalid request payload"
// @Failure 403 {object} dto.ErrorResponseDTO "free limit reached"
// @Failure 502 {object} dto.ErrorResponseDTO "model unavailable"
// @Router /resources/generate [post]
func (h *ResourceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	var req dto.GenerateRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, invalid(err), "")
		return
	}

	res, err := h.generation.Generate(r.Context(), userID, llm.AppealRequest{
		Fields:      fromOcrDTO(req.OcrData),
		Explanation: req.UserExplanation,
		Arguments:   req.SelectedArguments,
	})
	if err != nil {
		writeError(w, h.logger, err, h.entitlement.CheckoutURL())
		return
	}
	writeJSON(w, http.StatusOK, dto.GenerateResponseDTO{GeneratedText: res.GeneratedText, ResourceID: res.ID})
}

// List godoc
// @Summary List the caller's appeals
// @Description Newest first. Free accounts receive previews.
// @Tags resources
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.ResourceResponseDTO
// @Router /resources [get]
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	limit := queryInt(r, "limit", defaultPageSize, maxPageSize)
	if limit == 0 {
		limit = defaultPageSize
	}
	views, err := h.entitlement.List(r.Context(), userID, limit, queryInt(r, "offset", 0, 0))
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	out := make([]dto.ResourceResponseDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toResourceDTO(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get godoc
// @Summary Get an appeal
// @Description Free accounts receive the first characters followed by a subscription notice.
// @Tags resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} dto.ResourceResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO "resource not found"
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	id, err := pathResourceID(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	v, err := h.entitlement.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*v))
}

// Delete godoc
// @Summary Delete an appeal
// @Tags resources
// @Param id path string true "Resource ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponseDTO "resource not found"
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	id, err := pathResourceID(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.entitlement.Delete(r.Context(), userID, id); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export godoc
// @Summary Download an appeal
// @Description Premium only. Free accounts get 403 with the checkout URL.
// @Tags resources
// @Produce plain
// @Produce application/pdf
// @Param id path string true "Resource ID"
// @Param format query string false "txt or pdf" default(txt)
// @Success 200 {file} file
// @Failure 403 {object} dto.ErrorResponseDTO "premium required"
// @Router /resources/{id}/export [get]
func (h *ResourceHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	id, err := pathResourceID(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatTXT
	}
	f, err := h.entitlement.Export(r.Context(), userID, id, format)
	if err != nil {
		writeError(w, h.logger, err, h.entitlement.CheckoutURL())
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Body)
}

// Archive godoc
// @Summary Archive an appeal as PDF
// @Description Premium only. Stores the PDF and returns a link valid for 15 minutes.
// @Tags resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} dto.PdfArchiveResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "premium required"
// @Failure 502 {object} dto.ErrorResponseDTO "storage unavailable"
// @Router /resources/{id}/pdf [post]
func (h *ResourceHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	id, err := pathResourceID(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	link, err := h.entitlement.Archive(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err, h.entitlement.CheckoutURL())
		return
	}
	writeJSON(w, http.StatusOK, dto.PdfArchiveResponseDTO{PdfURL: link})
}

// pathResourceID rejects ids that are not UUIDs before they reach the uuid column.
func pathResourceID(r *http.Request) (string, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", apperr.New(apperr.KindNotFound, service.MsgResourceNotFound)
	}
	return id.String(), nil
}

func toResourceDTO(v service.ResourceView) dto.ResourceResponseDTO {
	res := v.Resource
	out := dto.ResourceResponseDTO{
		ID:            res.ID,
		AitNumber:     res.AitNumber,
		Placa:         res.Placa,
		Renavam:       res.Renavam,
		Artigo:        res.Artigo,
		Local:         res.Local,
		OrgaoAutuador: res.OrgaoAutuador,
		GeneratedText: v.Text,
		Truncated:     v.Truncated,
		HasPdf:        res.PdfURL != nil,
		CreatedAt:     res.CreatedAt,
	}
	if res.DataInfracao != nil {
		d := res.DataInfracao.Format("2006-01-02")
		out.DataInfracao = &d
	}
	return out
}
