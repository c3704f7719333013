package handler

import (
	"net/http"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/apperr"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
)

// ExportHandler serves the caller's rows as CSV.
type ExportHandler struct {
	exports  service.ExportService
	profiles service.ProfileService
	logger   zerolog.Logger
}

func NewExportHandler(exports service.ExportService, profiles service.ProfileService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{exports: exports, profiles: profiles, logger: logger}
}

func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /export", authMw(http.HandlerFunc(h.Export)))
}

// Export godoc
// @Summary Export the caller's rows of one table as CSV
// @Tags export
// @Produce text/csv
// @Param table query string true "profiles, resources, payments or ocr_raw"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponseDTO "invalid table"
// @Router /export [get]
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	table := r.URL.Query().Get("table")
	body, err := h.exports.CSV(r.Context(), userID, table)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponseDTO{
				Error:   apperr.MessageOf(err),
				Kind:    string(apperr.KindValidation),
				Allowed: service.ExportTables(),
			})
			return
		}
		writeError(w, h.logger, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
