package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/apperr"
	"dirigia/internal/middleware"
	"dirigia/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders err as {error, kind}. Entitlement and limit errors also carry
// checkoutUrl so the client can redirect without a second call.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error, checkoutURL string) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("kind", string(kind)).Msg("Request rejected")
	}

	body := dto.ErrorResponseDTO{Error: apperr.MessageOf(err), Kind: string(kind)}
	switch kind {
	case apperr.KindEntitlement, apperr.KindLimitReached:
		body.CheckoutURL = checkoutURL
	case apperr.KindNotAFine:
		f := false
		body.IsTrafficFine = &f
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "Corpo da requisição inválido.", err)
	}
	return nil
}

// requestUser resolves the caller and makes sure their profile row exists.
func requestUser(r *http.Request, profiles service.ProfileService) (string, error) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		return "", apperr.New(apperr.KindUnauthorized, "Sessão inválida ou expirada.")
	}
	var email, name string
	if c := middleware.ClaimsFrom(r.Context()); c != nil {
		email, name = c.Email, c.DisplayName()
	}
	if _, err := profiles.Ensure(r.Context(), userID, email, name); err != nil {
		return "", err
	}
	return userID, nil
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// invalid turns a validator failure into a validation error.
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(apperr.KindValidation, "Campo inválido: "+verrs[0].Field()+".", err)
	}
	return apperr.Wrap(apperr.KindValidation, "Dados inválidos.", err)
}
