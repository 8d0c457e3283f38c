package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hearth-Ledger-Club/hearth-bot/app"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:    "hearth-bot",
		Environment:    cfg.Observability.Environment,
		Version:        "1.0.0",
		MetricsAddress: cfg.Observability.MetricsAddress,
	})
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		obs.Logger.Error("Application stopped with error", "error", err)
	}

	if err := application.Close(); err != nil {
		obs.Logger.Error("Shutdown error", "error", err)
	}

	obs.Logger.Info("hearth-bot shut down gracefully")
}
