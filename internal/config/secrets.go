package config

import (
	"context"
	"fmt"
	"strings"
)

// SecretPrefix marks a config value that must be fetched from Secret Manager,
// e.g. "sm://projects/p/secrets/openai-key/versions/latest".
const SecretPrefix = "sm://"

// SecretResolver fetches the payload of a fully qualified secret version name.
type SecretResolver interface {
	AccessSecret(ctx context.Context, name string) (string, error)
}

// ResolveSecrets replaces every sm:// reference among the credential fields
// with the secret payload. Plain values are left untouched.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	fields := []*string{
		&c.DBPassword,
		&c.JWTSecret,
		&c.S3AccessKey,
		&c.S3SecretKey,
		&c.OpenAIAPIKey,
		&c.AbacatePayAPIKey,
		&c.AbacatePayWebhookToken,
		&c.CaktoWebhookSecret,
		&c.StripeSecretKey,
		&c.StripeWebhookSecret,
	}
	for _, f := range fields {
		if !strings.HasPrefix(*f, SecretPrefix) {
			continue
		}
		name := strings.TrimPrefix(*f, SecretPrefix)
		val, err := r.AccessSecret(ctx, name)
		if err != nil {
			return fmt.Errorf("resolving secret %s: %w", name, err)
		}
		*f = strings.TrimSpace(val)
	}
	return nil
}

// HasSecretRefs reports whether any credential still points at Secret Manager.
func (c *Config) HasSecretRefs() bool {
	for _, v := range []string{
		c.DBPassword, c.JWTSecret, c.S3AccessKey, c.S3SecretKey, c.OpenAIAPIKey,
		c.AbacatePayAPIKey, c.AbacatePayWebhookToken, c.CaktoWebhookSecret,
		c.StripeSecretKey, c.StripeWebhookSecret,
	} {
		if strings.HasPrefix(v, SecretPrefix) {
			return true
		}
	}
	return false
}
