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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/galatadergisi/galata-backend/internal/contributions"
	"github.com/galatadergisi/galata-backend/internal/credentials"
	"github.com/galatadergisi/galata-backend/internal/cron"
	"github.com/galatadergisi/galata-backend/internal/drivesync"
	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/internal/settings"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/instance"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/migrate"
	"github.com/galatadergisi/galata-backend/pkg/redis"
	"github.com/galatadergisi/galata-backend/pkg/storage/gdrive"
)

const (
	// exitCredentials is the exit status when Drive credentials are unusable.
	exitCredentials = 13

	retentionInterval   = time.Hour
	startupCheckTimeout = 30 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "sync-worker"

	instanceID := instance.ID(cfg.App.InstanceID)
	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Instance:    instanceID,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Sync.Interval.String(),
	})

	err = run(ctx, cfg, logg, instanceID)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logg.Info(ctx, "sync worker shutting down gracefully")
	case pkgerrors.IsCode(err, pkgerrors.CodeStartup):
		logg.Error(ctx, "drive credentials unusable", err)
		os.Exit(exitCredentials)
	default:
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

// run wires the sync and retention schedulers and blocks until ctx is
// canceled. Drive credential failures come back as CodeStartup.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, instanceID string) error {
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

	settingsRepo := settings.NewRepository(dbClient.DB())
	manager, err := credentials.Load(ctx, settingsRepo, credentials.Params{
		TokenURL:    cfg.Drive.TokenURL,
		RefreshSkew: cfg.Drive.RefreshSkew,
		Logger:      logg,
	})
	if err != nil {
		return err
	}
	driveClient, err := gdrive.NewClient(ctx, gdrive.Options{
		TokenSource: manager.TokenSource(),
		Endpoint:    cfg.Drive.Endpoint,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStartup, err, "create drive client")
	}
	if cfg.Drive.StartupCheck {
		if err := checkDrive(ctx, manager, driveClient); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStartup, err, "drive startup check")
		}
	}

	registry := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(registry)
	syncMetrics := metrics.NewSyncMetrics(registry)

	notificationRepo := notifications.NewRepository(dbClient.DB())
	queue, err := notifications.NewQueue(notificationRepo, logg)
	if err != nil {
		return err
	}
	engine, err := drivesync.NewEngine(drivesync.EngineParams{
		Contributions: contributions.NewRepository(dbClient.DB()),
		Credentials:   manager,
		Resolver:      drivesync.NewResolver(driveClient, logg, syncMetrics),
		Drive:         driveClient,
		Queue:         queue,
		Settings:      settingsRepo,
		UploadDir:     cfg.Uploads.Dir,
		Location:      cfg.Sync.Location(),
		Logger:        logg,
		Metrics:       syncMetrics,
	})
	if err != nil {
		return err
	}
	retentionJob, err := cron.NewRetentionJob(logg, notificationRepo, cfg.Sync.RetentionDays)
	if err != nil {
		return err
	}

	schedulers := []struct {
		name     string
		job      cron.Job
		interval time.Duration
	}{
		{drivesync.JobName, engine, cfg.Sync.Interval},
		{cron.RetentionJobName, retentionJob, retentionInterval},
	}

	services := make([]*cron.Service, 0, len(schedulers))
	for _, sc := range schedulers {
		lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(sc.name), cfg.Sync.LockTTL, instanceID)
		if err != nil {
			return err
		}
		svc, err := cron.NewService(cron.ServiceParams{
			Name:     sc.name,
			Logger:   logg,
			Registry: cron.NewRegistry(sc.job),
			Lock:     lock,
			Metrics:  cronMetrics,
			Interval: sc.interval,
		})
		if err != nil {
			return err
		}
		services = append(services, svc)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, svc := range services {
		group.Go(func() error { return svc.Run(groupCtx) })
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Metrics.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	group.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logg.Info(ctx, "starting sync worker")
	return group.Wait()
}

// checkDrive refreshes the access token once and checks Drive answers, so a
// revoked grant fails the deploy instead of the first tick.
func checkDrive(ctx context.Context, manager *credentials.Manager, drive *gdrive.Client) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	refresh, err := manager.Refresh(ctx)
	if err != nil {
		return err
	}
	if refresh.Rotated {
		manager.Persist(ctx, refresh.RefreshToken)
	}
	return drive.Ping(ctx)
}
