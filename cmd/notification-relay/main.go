package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/instance"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/migrate"
	"github.com/galatadergisi/galata-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-relay"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "notification-relay",
		Instance:    instance.ID(cfg.App.InstanceID),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification relay stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "notification relay stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ps.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	relay, err := NewRelay(RelayParams{
		Logger:    logg,
		DB:        dbClient,
		Queue:     notifications.NewRepository(dbClient.DB()),
		Publisher: topicPublisher{p: ps.NotificationPublisher()},
		Config:    cfg.Relay,
	})
	if err != nil {
		return err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"topic":      ps.Topic(),
		"batch_size": cfg.Relay.BatchSize,
	}), "starting notification relay")
	return relay.Run(ctx)
}
