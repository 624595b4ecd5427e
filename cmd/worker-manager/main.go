// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/bootstrap"
	"readiness-scorer/internal/common/camunda"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/common/observability"
	"readiness-scorer/internal/readiness"
	crs "readiness-scorer/internal/workers/assessment/check-readiness-score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("benchmarkSource", cfg.Benchmarks.Source),
		zap.String("inferenceMode", cfg.Inference.Mode),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Backing stores ---
	backends, err := bootstrap.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backing store connection failed", zap.Error(err))
	}
	defer backends.Close()

	// --- Scorer ---
	rules, err := bootstrap.Rules(cfg.Scoring)
	if err != nil {
		zapLog.Fatal("scoring rules invalid", zap.Error(err))
	}

	store, err := bootstrap.BenchmarkStore(ctx, cfg.Benchmarks, backends, log)
	if err != nil {
		zapLog.Fatal("benchmark table load failed", zap.Error(err))
	}
	go store.Run(ctx, cfg.Benchmarks.RefreshEvery())

	scorer, err := bootstrap.Scorer(rules, store, bootstrap.Analyzer(cfg.Inference, backends, log), cfg.Scoring, log,
		readiness.WithTracer(obs.Tracer()))
	if err != nil {
		zapLog.Fatal("scorer setup failed", zap.Error(err))
	}
	zapLog.Info("Scorer ready",
		zap.String("rulesVersion", rules.Version),
		zap.String("benchmarkVersion", store.Snapshot().Version()),
	)

	// --- Zeebe client ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	handler, err := crs.NewHandler(crs.HandlerOptions{
		Config:        crs.ConfigFromApp(cfg),
		Scorer:        scorer,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create check-readiness-score handler", zap.Error(err))
	}
	readinessWorker := camunda.StartWorker(zeebe.GetClient(), crs.TaskType,
		config.GetWorkerConfig(cfg, crs.TaskType), handler.Handle, log)

	var ready atomic.Bool
	ready.Store(true)

	// --- Health & Metrics Server ---
	server := newOpsServer(cfg.Metrics.Address, zeebe, store, &ready)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)

	readinessWorker.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func newOpsServer(addr string, zeebe *camunda.Client, store *benchmarks.Store, ready *atomic.Bool) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "stopping"})
			return
		}
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "zeebe unreachable",
				"error":  err.Error(),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status":           "ready",
			"benchmarkVersion": store.Snapshot().Version(),
			"time":             time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
