package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/ingester"
	"github.com/spacesedan/pulselens/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.GetProducerConfig()

	valkey := clients.InitValkey()
	defer clients.CloseValkey()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopChan
		slog.Info("Shutting down producer gracefully...")
		cancel()
	}()

	gen := ingester.NewIngester(valkey, cfg)
	gen.Run(ctx)
}
