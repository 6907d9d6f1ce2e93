package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/config"
	"github.com/pendo-io/kegtronbot/internal/alert"
	"github.com/pendo-io/kegtronbot/internal/api"
	"github.com/pendo-io/kegtronbot/internal/bot"
	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/registry"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

func main() {
	// .env is a local-dev convenience; absence is fine.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Int("port", cfg.Server.Port).Msg("starting kegtronbot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kegClient := kegtron.NewClient(cfg.Kegtron.APIURL, logger)

	var onEmpty kegtron.EmptyFunc
	if cfg.Alerts.Enabled {
		pool := alert.NewWorkerPool(
			cfg.Alerts.WorkerPoolSize,
			alert.NewWebPushSender(cfg.Alerts),
			alert.SubscribersFromConfig(cfg.Alerts.Subscribers),
			logger,
		)
		pool.Start(ctx)
		onEmpty = pool.OnEmpty
		logger.Info().Int("workers", cfg.Alerts.WorkerPoolSize).Msg("empty-keg alerts enabled")
	}

	reg := registry.New(cfg, kegClient, onEmpty, logger)
	go reg.Run(ctx)

	dispatcher := bot.NewDispatcher(
		reg,
		reg,
		slack.NewClient(cfg.Slack.ViewsOpenURL, logger),
		cfg.Kegtron.DefaultDevice,
		logger,
	)
	spawner := bot.NewSpawner(logger)
	handler := api.NewHandler(dispatcher, reg, spawner, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server, logger),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	spawner.Wait()
	logger.Info().Msg("stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
