package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/client"
	httpAdapter "github.com/ahemkaric/cashflow-monitoring/internal/adapter/http"
	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/handler"
	postgresRepo "github.com/ahemkaric/cashflow-monitoring/internal/adapter/repository/postgres"
	redisRepo "github.com/ahemkaric/cashflow-monitoring/internal/adapter/repository/redis"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/config"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/logger"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/metrics"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/postgres"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/redis"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL and apply migrations
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Upstream clients
	apiClient, err := client.New(cfg.ExternalAPIBaseURL, cfg.ExternalAPITimeout, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to create external api client")
	}
	apiClient = apiClient.WithMetrics(m)
	companyClient := client.NewCompanyClient(apiClient)
	transactionClient := client.NewTransactionClient(apiClient)
	rateClient := client.NewExchangeRateClient(apiClient)

	// Repositories and cache
	retrier := postgresRepo.NewRetrier(appLogger)
	infoRepo := postgresRepo.NewCompanyInfoRepository(pool, retrier)
	infoCache := redisRepo.NewCompanyInfoCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	companyUC := usecase.NewCompanyUseCase(companyClient, appLogger)
	infoUC := usecase.NewCompanyInfoUseCase(infoRepo, infoCache, companyUC, idGen, m, appLogger)
	rateUC := usecase.NewExchangeRateUseCase(rateClient, appLogger)
	resolverUC := usecase.NewResolverUseCase(infoRepo, companyUC, appLogger).WithTTL(cfg.ResolverTTL)
	transactionUC := usecase.NewTransactionUseCase(
		transactionClient, infoUC, rateUC, companyUC, usecase.NewKeyLock(), m, appLogger)
	orchestratorUC := usecase.NewOrchestratorUseCase(
		transactionUC, rateUC, resolverUC, infoUC, m, appLogger)

	// Handlers
	companyHandler := handler.NewCompanyHandler(companyUC)
	cashflowHandler := handler.NewCashflowHandler(infoUC, transactionUC, orchestratorUC, resolverUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CompanyHandler:  companyHandler,
		CashflowHandler: cashflowHandler,
		HealthHandler:   healthHandler,
		Logger:          appLogger,
	})

	// Server
	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

func serverAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
