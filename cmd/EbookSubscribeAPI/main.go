package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gfornaciari/ebook-subscribe-api/internal/app"
	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/metrics"
	"github.com/gfornaciari/ebook-subscribe-api/pkg/logger"
)

// @title Ebook Subscribe API
// @version 1.0
// @description Newsletter sign-up for the Honest Investment Guide: stores the subscriber and sends the welcome email.
// @host localhost:8080
// @BasePath /
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l, err := logger.NewLogger(cfg.LogsPath, "subscribe-api")
	if err != nil {
		log.Panicf("failed to create logger: %v", err)
	}

	m := metrics.NewMetrics("subscribe_api")

	application := app.New(*cfg, l, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		l.Error().Err(err).Msg("application stopped with error")
		stop()
		log.Panic(err)
	}
}
