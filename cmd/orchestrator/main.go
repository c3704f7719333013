package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"dirigia/internal/config"
	"dirigia/internal/logger"
	"dirigia/internal/orchestrator/reconcile"
	"dirigia/internal/payment"
	"dirigia/internal/pgmq"
	"dirigia/internal/pubsub"
	"dirigia/internal/repository"
	"dirigia/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "reconcile", "Orchestrator mode: reconcile")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.HasSecretRefs() {
		sm, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Secret Manager client")
		}
		if err := cfg.ResolveSecrets(ctx, sm); err != nil {
			logger.Fatal().Err(err).Msg("Failed to resolve secrets")
		}
		_ = sm.Close()
	}

	// Initialize DB connection
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	// Initialize PGMQ client
	pgmqClient := pgmq.New(db)
	logger.Info().Msg("PGMQ client initialized")

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "reconcile":
		if cfg.AbacatePayAPIKey == "" {
			logger.Fatal().Msg("ABACATE_PAY_API_KEY is required in reconcile mode")
		}
		var publisher pubsub.Publisher
		if cfg.GCPProjectID != "" && cfg.PubSubPaymentTopic != "" {
			p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
			if err != nil {
				logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
			}
			defer p.Close()
			publisher = p
		}
		webhooks := service.NewWebhookService(
			repository.NewProfileRepo(pool),
			repository.NewPaymentRepo(pool),
			repository.NewWebhookEventRepo(db),
			service.NewNotifier(publisher, cfg.PubSubPaymentTopic, logger),
			logger,
		)
		provider := payment.NewAbacatePayClient(cfg.AbacatePayAPIKey, cfg.AbacatePayBaseURL,
			time.Duration(cfg.PaymentTimeoutSec)*time.Second)
		worker := reconcile.NewWorker(pgmqClient, provider, webhooks, repository.NewDLQRepository(db), reconcile.Options{
			Queue:          cfg.ReconcileQueueName,
			DeadLetter:     cfg.ReconcileDeadLetterQueueName,
			PollTimeout:    time.Duration(cfg.ReconcilePollTimeoutSec) * time.Second,
			MaxMessages:    cfg.ReconcilePollMaxMsg,
			Visibility:     time.Duration(cfg.ReconcileVisibilitySec) * time.Second,
			Delay:          time.Duration(cfg.ReconcileDelaySec) * time.Second,
			MaxAttempts:    cfg.ReconcileMaxAttempts,
			MaxRetries:     cfg.ReconcileMaxRetries,
			BackoffInitial: time.Duration(cfg.ReconcileBackoffInitialSec) * time.Second,
			BackoffMax:     time.Duration(cfg.ReconcileBackoffMaxSec) * time.Second,
		}, logger)
		runErr = worker.Run(ctx)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
