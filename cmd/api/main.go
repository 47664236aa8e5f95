package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wager-escrow/config"
	httpHandler "wager-escrow/internal/adapter/http/handler"
	"wager-escrow/internal/adapter/http/middleware"
	"wager-escrow/internal/adapter/messaging"
	"wager-escrow/internal/adapter/metrics"
	pgStorage "wager-escrow/internal/adapter/storage/postgres"
	redisStorage "wager-escrow/internal/adapter/storage/redis"
	"wager-escrow/internal/core/ports"
	"wager-escrow/internal/service"
	"wager-escrow/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(os.Getenv("WGE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("wager-escrow", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wager Escrow")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	wagerRepo := pgStorage.NewWagerRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	wagerCache := redisStorage.NewWagerCache(rdb)
	nonceStore := redisStorage.NewNonceStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	var publisher interface {
		ports.EventPublisher
		Close() error
	} = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = messaging.NewKafkaPublisher(messaging.NewWriter(cfg.Kafka.BrokerList(), cfg.Kafka.Topic))
		log.Info().Strs("brokers", cfg.Kafka.BrokerList()).Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher enabled")
	}
	defer publisher.Close()

	var (
		recorder       ports.MetricsRecorder = metrics.Nop{}
		httpMetrics    middleware.HTTPObserver
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec := metrics.NewRecorder(reg)
		recorder, httpMetrics = rec, rec
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	custody := service.NewCustodyLedger(accountRepo, encSvc)
	escrowSvc := service.NewEscrowService(
		wagerRepo,
		custody,
		transactor,
		wagerCache,
		publisher,
		recorder,
		service.EscrowOptions{DefaultAdmin: cfg.Escrow.DefaultAdmin, CacheTTL: cfg.Escrow.CacheTTL},
		log,
	)
	custodySvc := service.NewCustodyService(wagerRepo, custody, transactor, publisher, recorder, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		EscrowSvc:      escrowSvc,
		CustodySvc:     custodySvc,
		TokenSvc:       tokenSvc,
		NonceStore:     nonceStore,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
