package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Claims are the Supabase access token claims the API relies on.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// DisplayName returns the name the user registered with, if any.
func (c *Claims) DisplayName() string {
	for _, k := range []string{"full_name", "name"} {
		if s, ok := c.UserMetadata[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Verifier validates an access token and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*Claims, error)
}

func parserOptions(issuer, audience string, methods []string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func finish(token *jwt.Token, claims *Claims, err error) (*Claims, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing sub")
	}
	return claims, nil
}

type hmacVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewHMACVerifier validates tokens signed with the project's shared JWT secret.
func NewHMACVerifier(secret, issuer, audience string) Verifier {
	methods := []string{jwt.SigningMethodHS256.Name, jwt.SigningMethodHS384.Name, jwt.SigningMethodHS512.Name}
	return &hmacVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(parserOptions(issuer, audience, methods)...),
	}
}

func (v *hmacVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v (expected HMAC)", token.Header["alg"])
		}
		return v.secret, nil
	})
	return finish(token, claims, err)
}

type jwksVerifier struct {
	keyfunc keyfunc.Keyfunc
	parser  *jwt.Parser
}

// NewJWKSVerifier validates asymmetric tokens against keys served at jwksURL.
// The key set is refreshed in the background.
func NewJWKSVerifier(jwksURL, issuer, audience string) (Verifier, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url must be set")
	}
	kf, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}
	methods := []string{
		jwt.SigningMethodES256.Name, jwt.SigningMethodRS256.Name,
		jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name,
	}
	return &jwksVerifier{keyfunc: kf, parser: jwt.NewParser(parserOptions(issuer, audience, methods)...)}, nil
}

func (v *jwksVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc.Keyfunc)
	return finish(token, claims, err)
}
