package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	// Name labels logs and the skipped-cycle metric.
	Name     string
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs its jobs under Lock, waits Interval once the cycle is over and
// starts again, so cycles never overlap. A failing job is logged and counted;
// the rest of the cycle still runs.
type Service struct {
	name     string
	logg     *logger.Logger
	jobs     *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Logger == nil {
		return nil, errors.New("cron: logger required")
	}
	if p.Lock == nil {
		return nil, errors.New("cron: lock required")
	}
	s := &Service{
		name:     p.Name,
		logg:     p.Logger,
		jobs:     p.Registry,
		lock:     p.Lock,
		metrics:  p.Metrics,
		interval: p.Interval,
	}
	if s.name == "" {
		s.name = "cron"
	}
	if s.jobs == nil {
		s.jobs = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

// Run blocks until ctx is canceled. The first cycle starts immediately. A
// cycle in progress at cancellation runs to completion with a context that
// is not canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "scheduler", s.name)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":     s.jobs.Names(),
		"interval": s.interval.String(),
	}), "cron.start")

	next := time.NewTimer(0)
	defer next.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stop")
			return ctx.Err()
		case <-next.C:
		}
		if err := s.runCycle(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		next.Reset(s.interval)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		holder, _ := s.lock.Holder(ctx)
		s.logg.Info(s.logg.WithField(ctx, "lock_holder", holder), "cron.skipped")
		s.metrics.IncSkipped(s.name)
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.release_failed", err)
		}
	}()

	for _, job := range s.jobs.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	started := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(started)
	s.metrics.ObserveRun(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job_failed", err)
		return
	}
	s.logg.Debug(ctx, "cron.job_done")
}
