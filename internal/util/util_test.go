package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, claims Claims, key string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func validClaims() Claims {
	return Claims{
		Email:        "ana@example.com",
		UserMetadata: map[string]any{"full_name": "Ana Souza"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8d2f5c3e-0000-4000-8000-000000000001",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier(secret, "", "authenticated")

	claims, err := v.Verify(sign(t, validClaims(), secret))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "Ana Souza", claims.DisplayName())

	_, err = v.Verify(sign(t, validClaims(), "another-secret-another-secret-another"))
	assert.Error(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = v.Verify(sign(t, expired, secret))
	assert.Error(t, err)

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"anon"}
	_, err = v.Verify(sign(t, wrongAud, secret))
	assert.Error(t, err)

	noSub := validClaims()
	noSub.Subject = ""
	_, err = v.Verify(sign(t, noSub, secret))
	assert.Error(t, err)
}

func TestNewJWKSVerifierRequiresURL(t *testing.T) {
	_, err := NewJWKSVerifier("", "", "")
	assert.Error(t, err)
}
