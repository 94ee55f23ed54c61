package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/centsai/internal/aiclient"
	"github.com/mmynk/centsai/internal/api"
	"github.com/mmynk/centsai/internal/auth"
	"github.com/mmynk/centsai/internal/config"
	"github.com/mmynk/centsai/internal/events"
	"github.com/mmynk/centsai/internal/metrics"
	"github.com/mmynk/centsai/internal/service"
	"github.com/mmynk/centsai/internal/storage"
	"github.com/mmynk/centsai/internal/storage/postgres"
	"github.com/mmynk/centsai/internal/storage/sqlite"
	"github.com/mmynk/centsai/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "backend", cfg.DBBackend)

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize event publisher: %w", err)
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(cfg.BcryptCost)
	extractor := aiclient.New(cfg.AIServiceURL, cfg.AITimeout, logger, m)

	handlers := api.NewHandlers(
		service.NewAuthService(authenticator, jwtManager, store, logger),
		service.NewTransactionService(store, publisher, m, logger),
		service.NewAIService(extractor, store, publisher, m, logger),
		logger,
	)
	router := api.NewRouter(api.RouterConfig{
		Handlers:       handlers,
		Tokens:         jwtManager,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		AllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		// Must outlast the AI call.
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.DBBackend == "postgres" {
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, expense events are not published")
		return events.Nop{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Publishing expense events", "exchange", cfg.AMQPExchange)
	return publisher, nil
}
