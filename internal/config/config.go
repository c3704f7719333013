package config

import (
	"fmt"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"production"`
	AppBaseURL  string `envconfig:"APP_BASE_URL" default:"http://localhost:5173"`

	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`

	// Supabase auth: HS256 secret, or a JWKS endpoint for asymmetric keys.
	JWTSecret   string `envconfig:"SUPABASE_JWT_SECRET"`
	JWKSURL     string `envconfig:"SUPABASE_JWKS_URL"`
	JWTIssuer   string `envconfig:"SUPABASE_JWT_ISSUER"`
	JWTAudience string `envconfig:"SUPABASE_JWT_AUDIENCE" default:"authenticated"`

	// Supabase Storage (S3 compatible) for archived PDF exports
	S3URL       string `envconfig:"SUPABASE_S3_URL"`
	S3Bucket    string `envconfig:"SUPABASE_S3_BUCKET" default:"recursos"`
	S3Region    string `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"SUPABASE_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"SUPABASE_S3_SECRET_KEY"`

	// Language model providers
	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMTimeoutSec   int    `envconfig:"LLM_TIMEOUT_SEC" default:"60"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel     string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	VertexModel     string `envconfig:"VERTEX_MODEL" default:"gemini-2.0-flash"`
	VertexRegion    string `envconfig:"VERTEX_REGION" default:"us-central1"`
	OCRMaxImageSide int    `envconfig:"OCR_MAX_IMAGE_SIDE" default:"2048"`

	// Plans and limits
	PriceMonthlyCents  int64 `envconfig:"PRICE_MONTHLY_CENTS" default:"4990"`
	PriceAnnualCents   int64 `envconfig:"PRICE_ANNUAL_CENTS" default:"14990"`
	FreeResourceLimit  int   `envconfig:"FREE_RESOURCE_LIMIT" default:"1"`
	PreviewCharLimit   int   `envconfig:"PREVIEW_CHAR_LIMIT" default:"500"`
	PreferencesTTLDays int   `envconfig:"PREFERENCES_TTL_DAYS" default:"180"`

	// Payment providers
	CardProvider           string `envconfig:"CARD_PROVIDER" default:"stripe"`
	AbacatePayAPIKey       string `envconfig:"ABACATE_PAY_API_KEY"`
	AbacatePayBaseURL      string `envconfig:"ABACATE_PAY_BASE_URL" default:"https://api.abacatepay.com"`
	AbacatePayWebhookToken string `envconfig:"ABACATE_PAY_WEBHOOK_SECRET"`
	CaktoCheckoutURL       string `envconfig:"CAKTO_CHECKOUT_URL" default:"https://pay.cakto.com.br/ctkescx_758613"`
	CaktoWebhookSecret     string `envconfig:"CAKTO_WEBHOOK_SECRET"`
	StripeSecretKey        string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret    string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	PaymentTimeoutSec      int    `envconfig:"PAYMENT_TIMEOUT_SEC" default:"15"`

	// Google Cloud
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubPaymentTopic string `envconfig:"PUBSUB_PAYMENT_TOPIC"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Reconcile orchestrator settings
	ReconcileQueueName           string `envconfig:"RECONCILE_QUEUE_NAME" default:"payment_reconcile"`
	ReconcileDeadLetterQueueName string `envconfig:"RECONCILE_DEAD_LETTER_QUEUE_NAME" default:"payment_reconcile_dlq"`
	ReconcilePollTimeoutSec      int    `envconfig:"RECONCILE_POLL_TIMEOUT_SEC" default:"30"`
	ReconcilePollMaxMsg          int    `envconfig:"RECONCILE_POLL_MAX_MSG" default:"10"`
	ReconcileVisibilitySec       int    `envconfig:"RECONCILE_VISIBILITY_SEC" default:"60"`
	ReconcileDelaySec            int    `envconfig:"RECONCILE_DELAY_SEC" default:"60"`
	ReconcileMaxAttempts         int    `envconfig:"RECONCILE_MAX_ATTEMPTS" default:"60"`
	ReconcileMaxRetries          int    `envconfig:"RECONCILE_MAX_RETRIES" default:"3"`
	ReconcileBackoffInitialSec   int    `envconfig:"RECONCILE_BACKOFF_INITIAL_SEC" default:"1"`
	ReconcileBackoffMaxSec       int    `envconfig:"RECONCILE_BACKOFF_MAX_SEC" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("one of SUPABASE_JWT_SECRET or SUPABASE_JWKS_URL must be set")
	}
	return &cfg, nil
}

// IsDevelopment reports whether the app runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DSN builds a key/value Postgres connection string understood by both pgx and lib/pq.
func (c *Config) DSN() string {
	sslMode := c.DBSSLMode
	if c.IsDevelopment() {
		sslMode = "disable"
	}
	return "host=" + c.DBHost +
		" port=" + strconv.Itoa(c.DBPort) +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + sslMode
}

// StorageEnabled reports whether PDF archiving to object storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3URL != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
