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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galatadergisi/galata-backend/api/routes"
	"github.com/galatadergisi/galata-backend/internal/contributions"
	"github.com/galatadergisi/galata-backend/internal/magazines"
	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/internal/settings"
	"github.com/galatadergisi/galata-backend/internal/uploads"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/instance"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/migrate"
	"github.com/galatadergisi/galata-backend/pkg/recaptcha"
	"github.com/galatadergisi/galata-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.ID(cfg.App.InstanceID),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": ":" + cfg.App.Port})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

// run serves until ctx is canceled, then drains in-flight requests for at
// most cfg.App.ShutdownTimeout.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes())
	if err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}
	queue, err := notifications.NewQueue(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	contributionService, err := contributions.NewService(contributions.ServiceParams{
		Repo:     contributions.NewRepository(dbClient.DB()),
		Queue:    queue,
		Settings: settings.NewRepository(dbClient.DB()),
		Verifier: recaptcha.NewClient(cfg.Recaptcha.VerifyURL, cfg.Recaptcha.Timeout),
		Files:    uploadStore,
		Tx:       dbClient,
		Logger:   logg,
		Metrics:  metrics.NewSubmissionMetrics(registry),
	})
	if err != nil {
		return err
	}
	magazineService, err := magazines.NewService(magazines.NewRepository(dbClient.DB()), cfg.Magazines.CacheSize, cfg.Magazines.CacheTTL)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: ":" + cfg.App.Port,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			contributionService,
			uploadStore,
			magazineService,
			magazines.NewIndexCache(cfg.Magazines.IndexPath),
			metrics.NewHTTPMetrics(registry),
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
