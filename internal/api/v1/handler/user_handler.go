package handler

import (
	"net/http"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/middleware"
	"dirigia/internal/model"
	"dirigia/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	profiles    service.ProfileService
	entitlement service.EntitlementService
	preferences service.PreferenceService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewUserHandler(
	profiles service.ProfileService,
	entitlement service.EntitlementService,
	preferences service.PreferenceService,
	v *validator.Validate,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		profiles:    profiles,
		entitlement: entitlement,
		preferences: preferences,
		validate:    v,
		logger:      logger,
	}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /users/me", authMw(http.HandlerFunc(h.getProfile)))
	mux.Handle("PATCH /users/me", authMw(http.HandlerFunc(h.updateProfile)))
	mux.Handle("DELETE /users/me", authMw(http.HandlerFunc(h.deleteProfile)))
	mux.Handle("GET /users/me/entitlement", authMw(http.HandlerFunc(h.getEntitlement)))
	mux.Handle("GET /users/me/preferences", authMw(http.HandlerFunc(h.getPreferences)))
	mux.Handle("PUT /users/me/preferences", authMw(http.HandlerFunc(h.updatePreferences)))
}

// getProfile godoc
// @Summary Get the caller's profile
// @Description Creates the profile on first access.
// @Tags users
// @Produce json
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO "unauthorized"
// @Router /users/me [get]
func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// updateProfile godoc
// @Summary Rename the caller
// @Tags users
// @Accept json
// @Produce json
// @Param profile body dto.ProfileUpdateDTO true "New name"
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "invalid name"
// @Router /users/me [patch]
func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	var req dto.ProfileUpdateDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, invalid(err), "")
		return
	}
	p, err := h.profiles.UpdateName(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// deleteProfile godoc
// @Summary Delete the caller's data
// @Description Removes appeals, OCR records, preferences and the profile. Payments are kept without the user link.
// @Tags users
// @Success 204
// @Router /users/me [delete]
func (h *UserHandler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getEntitlement godoc
// @Summary Get the caller's plan
// @Description Always read from the database, never cached.
// @Tags users
// @Produce json
// @Success 200 {object} dto.EntitlementResponseDTO
// @Router /users/me/entitlement [get]
func (h *UserHandler) getEntitlement(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	e, err := h.entitlement.Status(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.EntitlementResponseDTO{
		IsPremium:      e.IsPremium,
		Plan:           string(e.Plan),
		ResourcesCount: e.ResourcesCount,
		CheckoutURL:    e.CheckoutURL,
	})
}

// getPreferences godoc
// @Summary Get the capture priming state
// @Tags users
// @Produce json
// @Success 200 {object} dto.PreferencesResponseDTO
// @Router /users/me/preferences [get]
func (h *UserHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	st, err := h.preferences.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesDTO(st))
}

// updatePreferences godoc
// @Summary Record an accepted priming dialog
// @Tags users
// @Accept json
// @Produce json
// @Param preferences body dto.PreferencesUpdateDTO true "Capture mode"
// @Success 200 {object} dto.PreferencesResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "invalid mode"
// @Router /users/me/preferences [put]
func (h *UserHandler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r, h.profiles)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	var req dto.PreferencesUpdateDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, invalid(err), "")
		return
	}
	st, err := h.preferences.MarkPrimed(r.Context(), userID, model.CaptureMode(req.Mode))
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesDTO(st))
}

func toProfileDTO(p *model.Profile) dto.ProfileResponseDTO {
	return dto.ProfileResponseDTO{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Plan:           string(p.Plan),
		ResourcesCount: p.ResourcesCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPreferencesDTO(st *service.PrimingState) dto.PreferencesResponseDTO {
	out := dto.PreferencesResponseDTO{Camera: st.Camera, File: st.File}
	if p := st.Preferences; p != nil {
		out.CameraPrimedAt = p.CameraPrimedAt
		out.FilePrimedAt = p.FilePrimedAt
	}
	return out
}
