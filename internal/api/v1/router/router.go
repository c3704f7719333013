package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"dirigia/internal/api/v1/dto"
	"dirigia/internal/api/v1/handler"
	"dirigia/internal/config"
	"dirigia/internal/llm"
	"dirigia/internal/middleware"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/pubsub"
	"dirigia/internal/realtime"
	"dirigia/internal/repository"
	"dirigia/internal/service"
	"dirigia/internal/storage"
	"dirigia/internal/util"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// App is the wired HTTP application plus the pieces main needs to run and stop it.
type App struct {
	Handler  http.Handler
	Listener *realtime.Listener
	closers  []func()
}

// Close releases clients and connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Database: pgx pool for transactional repositories, database/sql on top of it for the rest
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return fail(fmt.Errorf("parsing database config: %w", err))
	}
	// Transaction poolers in front of hosted Postgres reject server-side prepared statements.
	if !cfg.IsDevelopment() {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fail(fmt.Errorf("creating database pool: %w", err))
	}
	app.closers = append(app.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return fail(fmt.Errorf("pinging database: %w", err))
	}
	db := stdlib.OpenDBFromPool(pool)
	app.closers = append(app.closers, func() { _ = db.Close() })
	logger.Info().Msg("Database connection successful")

	// 2. Object storage
	var store storage.Store
	if cfg.StorageEnabled() {
		store, err = storage.NewS3Store(ctx, storage.Options{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return fail(err)
		}
	} else {
		logger.Warn().Msg("Object storage not configured, PDF archiving disabled")
	}

	// 3. Language model
	model, closeModel, err := newLLM(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, closeModel)
	logger.Info().Str("provider", model.Name()).Msg("Language model ready")

	// 4. Pub/Sub publisher for payment and plan changes
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" && cfg.PubSubPaymentTopic != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			return fail(fmt.Errorf("creating Pub/Sub publisher: %w", err))
		}
		app.closers = append(app.closers, func() { _ = p.Close() })
		publisher = p
	}

	// 5. Validator
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := dto.RegisterValidations(validate); err != nil {
		return fail(fmt.Errorf("registering validations: %w", err))
	}

	// 6. Repositories & services & handlers
	profileRepo := repository.NewProfileRepo(pool)
	resourceRepo := repository.NewResourceRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	ocrRepo := repository.NewOcrRawRepo(db)
	preferenceRepo := repository.NewPreferenceRepo(db)
	ledgerRepo := repository.NewWebhookEventRepo(db)
	exportRepo := repository.NewExportRepo(db)

	profileSvc := service.NewProfileService(profileRepo, logger)
	entitlementSvc := service.NewEntitlementService(profileRepo, resourceRepo, store, cfg.PreviewCharLimit, cfg.AppBaseURL, logger)
	preferenceSvc := service.NewPreferenceService(preferenceRepo, time.Duration(cfg.PreferencesTTLDays)*24*time.Hour)
	ocrSvc := service.NewOcrService(model, ocrRepo, cfg.OCRMaxImageSide, logger)
	generationSvc := service.NewGenerationService(model, profileRepo, resourceRepo, cfg.FreeResourceLimit, logger)
	notifier := service.NewNotifier(publisher, cfg.PubSubPaymentTopic, logger)
	webhookSvc := service.NewWebhookService(profileRepo, paymentRepo, ledgerRepo, notifier, logger)
	checkoutSvc := service.NewCheckoutService(
		newPixClient(cfg),
		newCardProvider(cfg),
		paymentRepo,
		pgmq.New(db),
		service.CheckoutOptions{
			Prices:         map[string]int64{payment.PlanMonthly: cfg.PriceMonthlyCents, payment.PlanAnnual: cfg.PriceAnnualCents},
			AppBaseURL:     cfg.AppBaseURL,
			ReconcileQueue: cfg.ReconcileQueueName,
			ReconcileDelay: time.Duration(cfg.ReconcileDelaySec) * time.Second,
		},
		logger,
	)
	exportSvc := service.NewExportService(exportRepo)

	normalizers := payment.NewRegistry(
		payment.NewCaktoNormalizer(cfg.CaktoWebhookSecret),
		payment.NewAbacatePayNormalizer(cfg.AbacatePayWebhookToken),
		payment.NewStripeNormalizer(cfg.StripeWebhookSecret),
	)
	hub := realtime.NewHub()
	app.Listener = realtime.NewListener(cfg.DSN(), hub, logger)

	ocrHandler := handler.NewOcrHandler(ocrSvc, profileSvc, logger)
	resourceHandler := handler.NewResourceHandler(generationSvc, entitlementSvc, profileSvc, validate, logger)
	userHandler := handler.NewUserHandler(profileSvc, entitlementSvc, preferenceSvc, validate, logger)
	billingHandler := handler.NewBillingHandler(checkoutSvc, profileSvc, validate, cfg.IsDevelopment(), logger)
	webhookHandler := handler.NewWebhookHandler(normalizers, webhookSvc, logger)
	exportHandler := handler.NewExportHandler(exportSvc, profileSvc, logger)
	realtimeHandler := handler.NewRealtimeHandler(hub, paymentRepo, logger)

	// 7. Initialize middleware
	verifier, err := newVerifier(cfg)
	if err != nil {
		return fail(err)
	}
	authMiddleware := middleware.AuthMiddleware(verifier, logger)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	ocrHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	resourceHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	exportHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	realtimeHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	webhookHandler.RegisterRoutes(apiV1Mux)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("GET /swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, "swagger spec unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})
	mux.Handle("GET /healthz", healthz(db))

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	app.Handler = chimw.RequestID(chimw.RealIP(middleware.LoggerMiddleware(logger)(chimw.Recoverer(c.Handler(mux)))))
	logger.Info().Msg("Router initialized")
	return app, nil
}

func newLLM(ctx context.Context, cfg *config.Config) (llm.Client, func(), error) {
	timeout := time.Duration(cfg.LLMTimeoutSec) * time.Second
	switch cfg.LLMProvider {
	case "vertex":
		client, closeFn, err := llm.NewVertexClient(ctx, llm.VertexConfig{
			ProjectID: cfg.GCPProjectID,
			Region:    cfg.VertexRegion,
			Model:     cfg.VertexModel,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating Vertex AI client: %w", err)
		}
		return client, func() { _ = closeFn() }, nil
	case "openai", "":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: timeout,
		}), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
}

func newPixClient(cfg *config.Config) payment.AbacatePayClient {
	if cfg.AbacatePayAPIKey == "" {
		return nil
	}
	return payment.NewAbacatePayClient(cfg.AbacatePayAPIKey, cfg.AbacatePayBaseURL, time.Duration(cfg.PaymentTimeoutSec)*time.Second)
}

func newCardProvider(cfg *config.Config) payment.CardProvider {
	if cfg.CardProvider == "stripe" && cfg.StripeSecretKey != "" {
		return payment.NewStripeCheckout(cfg.StripeSecretKey)
	}
	if cfg.CaktoCheckoutURL == "" {
		return nil
	}
	return payment.NewCaktoCheckout(cfg.CaktoCheckoutURL)
}

func newVerifier(cfg *config.Config) (util.Verifier, error) {
	if cfg.JWKSURL != "" {
		v, err := util.NewJWKSVerifier(cfg.JWKSURL, cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			return nil, fmt.Errorf("loading JWKS: %w", err)
		}
		return v, nil
	}
	return util.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience), nil
}

func healthz(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
