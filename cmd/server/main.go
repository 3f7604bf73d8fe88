package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/alerting"
	"github.com/spacesedan/pulselens/internal/api"
	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/db"
	"github.com/spacesedan/pulselens/internal/hub"
	"github.com/spacesedan/pulselens/internal/logging"
	"github.com/spacesedan/pulselens/internal/sentiment"
	"github.com/spacesedan/pulselens/internal/worker"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.GetServerConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgres := clients.GetPostgresClient(ctx)
	defer postgres.Close()

	store := db.NewStore(postgres.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("[Main] Failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	valkey := clients.InitValkey()
	defer clients.CloseValkey()

	analyzer, err := sentiment.NewAnalyzer(cfg.SentimentBackend)
	if err != nil {
		slog.Error("[Main] Failed to create analyzer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	liveHub := hub.NewHub()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.NewMetricsBroadcaster(liveHub, store, cfg.Hub.MetricsInterval).Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		alerting.NewMonitor(store, store, liveHub, cfg.Alert).Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w := worker.NewWorker(valkey, store, analyzer, liveHub, cfg.Worker)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("[Main] Worker stopped", slog.String("error", err.Error()))
			cancel()
		}
	}()

	router := api.NewRouter(&api.Env{
		Store:  store,
		Valkey: valkey,
		Hub:    liveHub,
	})
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		slog.Info("[Main] HTTP server listening", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] HTTP server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stopChan:
		slog.Info("[Main] Shutting down gracefully...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("[Main] HTTP shutdown error", slog.String("error", err.Error()))
	}

	wg.Wait()
	slog.Info("[Main] Shutdown complete")
}
