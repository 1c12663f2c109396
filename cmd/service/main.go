package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/loyaltyauth/internal/config"
	v2server "github.com/dropDatabas3/loyaltyauth/internal/http/v2/server"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

var version = "dev"

func main() {
	// .env es opcional; en contenedores las variables vienen del entorno
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "loyaltyauth",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	rt, err := v2server.Build(ctx, cfg)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := rt.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	lg.Info("starting",
		logger.String("env", cfg.App.Env),
		logger.String("state_backend", cfg.State.Backend),
		logger.Bool("postgres", cfg.Storage.DSN != ""),
	)
	if err := rt.Serve(ctx); err != nil {
		lg.Error("server stopped", logger.Err(err))
		return
	}
	lg.Info("bye")
}
