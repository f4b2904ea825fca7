package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application/services"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/biller"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence/bolt"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/worker"
)

type storage struct {
	repo        application.TransactionRepository
	idempotency application.IdempotencyStore
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverBolt:
		store, err := bolt.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info("using bolt store", "path", cfg.Store.BoltPath)
		return &storage{
			repo:        store,
			idempotency: store,
			close:       func() { store.Close() },
		}, nil
	default:
		db, err := postgres.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &storage{
			repo:        postgres.NewTransactionRepository(db),
			idempotency: postgres.NewIdempotencyRepository(db),
			close:       db.Close,
		}, nil
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting ledger service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Logger.Level,
	)

	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		logger.Error("failed to load business tables", "error", err)
		os.Exit(1)
	}
	registry := reconciliation.DefaultRegistry()
	if err := tables.Apply(registry); err != nil {
		logger.Error("failed to apply reason code overrides", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.close()

	billerClient := biller.NewHTTPClient(cfg.Biller)
	retryClient := biller.NewRetryClient(billerClient, cfg.Retry)
	gateway := biller.NewGateway(retryClient, registry, cfg.Biller.Breaker, logger)

	chargeService := services.NewChargeService(store.repo, store.idempotency, gateway, tables.Policy(), logger)
	queryService := services.NewQueryService(store.repo, reconciliation.NewEngine(registry))
	lifecycleService := services.NewLifecycleService(store.repo, logger)

	h := handlers.NewHandler(chargeService, queryService, lifecycleService, logger)
	router, err := handlers.NewRouter(ctx, h, cfg.Server.RequestTimeout, logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewPendingSweeper(store.repo, lifecycleService, cfg.Worker, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go sweeper.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
