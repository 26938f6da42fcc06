package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/app"
	"github.com/weatherapp/weather-reminder-api/internal/config"
	"github.com/weatherapp/weather-reminder-api/pkg/logger"
)

// @title Weather Reminder API
// @version 1.0
// @description API for periodic weather notifications by subscription
// @host localhost:8080
// @BasePath /api/v1/
func main() {
	// .env is optional, configuration may come straight from the environment.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.New(cfg.LogsPath, "WeatherReminderAPI", level)

	application := app.New(*cfg, log)

	container, err := application.Init()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start(ctx, container)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped with error")
		}
	}

	if err := application.Stop(container); err != nil {
		log.Error().Err(err).Msg("failed to shutdown application")
	}
}
