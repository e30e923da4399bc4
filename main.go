// Package main is the entry point of the storefront users-backend microservice.
// It wires the ArangoDB user store, the session and account services, outbound email and
// the HTTP API, then serves until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/storefront/users-backend/database"
	gqlschema "github.com/storefront/users-backend/graphql"
	"github.com/storefront/users-backend/internal/api"
	"github.com/storefront/users-backend/internal/kafka"
	"github.com/storefront/users-backend/internal/services"
	"github.com/storefront/users-backend/restapi"
	"github.com/storefront/users-backend/restapi/modules/auth"
	"github.com/storefront/users-backend/util"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	logger, err := util.InitLogger(util.LoggerConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		util.LogError(logger, "Service stopped", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := auth.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database connection
	db, err := database.InitializeDatabase(ctx, database.ConfigFromEnv(), logger)
	if err != nil {
		return err
	}
	store := database.NewUserRepository(db)

	sessions, err := auth.NewSessionTokenService(auth.SessionConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.SessionTTL,
		Issuer: cfg.JWTIssuer,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := auth.NewMetrics(reg)

	resets := auth.NewResetMailRenderer(store, cfg.ResetLinkBase)
	notifier := services.NewNotifierService(ctx, kafka.ConfigFromEnv(), auth.LoadEmailConfig(), resets, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("Failed to close email producer", zap.Error(err))
		}
	}()

	hasher := auth.BcryptHasher{Cost: cfg.BcryptCost}
	svc := auth.NewUserAccountService(auth.ServiceDeps{
		Store:             store,
		Hasher:            hasher,
		Tokens:            sessions,
		Notifier:          notifier.Notifier,
		Metrics:           metrics,
		Logger:            logger,
		ResetLinkBase:     cfg.ResetLinkBase,
		ResetRequireToken: cfg.ResetRequireToken,
	})

	if cfg.SeedAccountsPath != "" {
		seedAccounts(ctx, logger, store, hasher, cfg.SeedAccountsPath)
	}

	// Initialize GraphQL schema
	schema, err := gqlschema.CreateSchema(svc)
	if err != nil {
		return err
	}

	app := api.NewFiberApp(restapi.Deps{
		Accounts: svc,
		Sessions: sessions,
		Metrics:  metrics,
		Cookies:  cfg.Cookie,
		Schema:   schema,
		Logger:   logger,
	}, reg)

	// Get port from environment or default to 3000
	port := database.GetEnvDefault("MS_PORT", "3000")

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", port))
		logger.Info("GraphQL endpoint available at /api/v1/graphql")
		errCh <- app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func seedAccounts(ctx context.Context, logger *zap.Logger, store auth.UserStore, hasher auth.PasswordHasher, path string) {
	seed, err := auth.LoadSeedConfig(path)
	if err != nil {
		util.LogError(logger, "Failed to load seed accounts", err)
		return
	}

	result, err := auth.ApplySeed(ctx, store, hasher, seed)
	if err != nil {
		util.LogError(logger, "Account seeding failed", err)
		return
	}

	logger.Info("Account seeding complete",
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("errors", len(result.Errors)),
	)
}
