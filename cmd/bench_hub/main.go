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

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/bench-hub/bench-hub/cmd/bench_hub/server"
	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/batch"
	"github.com/bench-hub/bench-hub/internal/config"
	"github.com/bench-hub/bench-hub/internal/datasets"
	"github.com/bench-hub/bench-hub/internal/engine"
	"github.com/bench-hub/bench-hub/internal/handlers"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/jobs"
	"github.com/bench-hub/bench-hub/internal/metricsreg"
	"github.com/bench-hub/bench-hub/internal/mlflow"
	"github.com/bench-hub/bench-hub/internal/registry"
	"github.com/bench-hub/bench-hub/internal/retry"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/internal/storage"
	"github.com/bench-hub/bench-hub/internal/validation"
	"github.com/bench-hub/bench-hub/pkg/mlflowclient"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path of the service configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Service.LogLevel)
	logger.Info("Starting bench-hub", "config", *configPath)

	if err := run(cfg, logger); err != nil {
		logger.Error("Service terminated", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := storage.NewStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	configStore, err := registry.NewStore(cfg.Registry.Path, logger)
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := configStore.Watch(watchCtx); err != nil {
			logger.Warn("Registry watcher stopped", "error", err)
		}
	}()

	datasetLoader, err := datasets.NewLoader(cfg.Datasets.Root, logger)
	if err != nil {
		return err
	}

	resolver := routing.NewResolver(configStore)
	backend := invoke.NewOpenAIBackend()
	client := invoke.NewClient(backend, cfg.Engine.InvocationTimeout)

	direct := invoke.NewDirectStrategy(client)
	var router invoke.Strategy
	if cfg.Engine.Router.Enabled {
		router = invoke.NewRouterStrategy(client, cfg.Engine.Router.Aliases)
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Engine.Retry.MaxAttempts,
		BaseDelay:   cfg.Engine.Retry.BaseDelay,
		Multiplier:  cfg.Engine.Retry.Multiplier,
		MaxDelay:    cfg.Engine.Retry.MaxDelay,
	}
	executor := retry.NewController(resolver, direct, router, policy, cfg.Engine.FallbackProviders, logger)
	batches := batch.NewController(executor, client, resolver, cfg.Engine.BatchSize, cfg.Engine.BulkProviders, logger)

	metricRegistry := metricsreg.NewRegistry()
	runner := engine.NewRunner(datasetLoader, metricRegistry, batches, logger)
	orchestrator := engine.NewOrchestrator(runner, configStore, logger)

	var dashboard abstractions.Dashboard
	if cfg.MLflow != nil && cfg.MLflow.TrackingURL != "" {
		dashboard = mlflow.NewDashboard(mlflowclient.NewClient(cfg.MLflow.TrackingURL), cfg.MLflow.Experiment, logger)
	}

	manager := jobs.NewManager(store, orchestrator, dashboard, logger)

	validate, err := validation.NewValidator()
	if err != nil {
		return err
	}

	h := handlers.New(manager, store, configStore, datasetLoader, validate, cfg)
	httpServer := &http.Server{
		Addr:    server.ListenAddress(cfg),
		Handler: server.New(h, cfg, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	// Let in-flight jobs reach a terminal state before the store closes.
	manager.Wait()
	return nil
}

func newLogger(level string) *slog.Logger {
	zapLevel := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		zapLevel = parsed
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zapLevel,
	)
	return slog.New(zapslog.NewHandler(core))
}
