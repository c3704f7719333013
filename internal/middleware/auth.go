package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dirigia/internal/apperr"
	"dirigia/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey   = contextKey("user")
	ClaimsContextKey = contextKey("claims")
)

// AuthMiddleware requires a valid bearer token. Websocket upgrades may pass the token
// in the access_token query parameter since browsers cannot set headers on them.
func AuthMiddleware(v util.Verifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.Debug().Str("path", r.URL.Path).Msg("Authorization header missing or malformed")
				unauthorized(w, "Cabeçalho de autorização ausente.")
				return
			}
			claims, err := v.Verify(tokenString)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid token")
				unauthorized(w, "Sessão inválida ou expirada.")
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if tok := r.URL.Query().Get("access_token"); tok != "" {
			return tok, true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "kind": apperr.KindUnauthorized})
}

// UserID returns the authenticated subject, or "" outside the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserContextKey).(string)
	return id
}

// ClaimsFrom returns the verified token claims.
func ClaimsFrom(ctx context.Context) *util.Claims {
	c, _ := ctx.Value(ClaimsContextKey).(*util.Claims)
	return c
}
