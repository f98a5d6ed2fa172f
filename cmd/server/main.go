package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardledger/internal/api"
	"cardledger/internal/config"
	"cardledger/internal/events/kafka"
	"cardledger/internal/repository"
	"cardledger/internal/repository/memory"
	"cardledger/internal/repository/postgres"
	"cardledger/internal/service"
	"cardledger/internal/timeline"
	"cardledger/pkg/crypto"
	"cardledger/pkg/metrics"
)

const (
	appName = "cardledger"
)

func main() {
	logger := setupLogger()
	cfg := config.Load()
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("http_addr", cfg.HTTPAddr))

	collector := metrics.NewCollector(logger)
	userRepo, cardRepo, balanceRepo := setupRepositories(cfg, logger)
	eventService := setupEventService(cfg, logger)
	reconciler := timeline.NewReconciler(cardRepo, balanceRepo, eventService, collector, logger)
	handler := api.NewHandler(reconciler, userRepo, cardRepo, balanceRepo, collector, logger)
	metricsServer := collector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg, handler, logger)
	waitForShutdown(logger, httpServer, metricsServer, eventService, collector)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func setupRepositories(cfg *config.Config, logger *slog.Logger) (
	repository.UserRepository,
	repository.CardRepository,
	repository.BalanceRepository,
) {
	if cfg.DatabaseURL == "" {
		logger.Info("Using in-memory repositories")
		return memory.NewUserRepository(), memory.NewCardRepository(), memory.NewBalanceRepository()
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Using postgres repositories")
	return postgres.NewUserRepository(db), postgres.NewCardRepository(db), postgres.NewBalanceRepository(db)
}

func setupEventService(cfg *config.Config, logger *slog.Logger) *service.EventService {
	var publisher service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("Publishing events to kafka",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.EventTopic))
		publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.EventTopic)
	} else {
		publisher = &service.LogPublisher{Logger: logger}
	}

	var signer *crypto.Signer
	if cfg.EventSigningKey != "" {
		signer = crypto.NewSigner(cfg.EventSigningKey, logger)
	}

	return service.NewEventService(publisher, signer, cfg.EventWorkers, logger)
}

func startHTTPServer(cfg *config.Config, handler *api.Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	handler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	eventService *service.EventService,
	collector *metrics.Collector,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := eventService.Shutdown(ctx); err != nil {
		logger.Error("Event service shutdown failed", slog.String("error", err.Error()))
	}

	if err := collector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
}
