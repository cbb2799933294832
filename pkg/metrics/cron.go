package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// CronJobMetrics covers the scheduler loops of the sync worker: one
// observation per job run and one count per cycle skipped because another
// replica held the lock.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "galata_cron_job_runs_total",
			Help: "Scheduled job runs by result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "galata_cron_job_duration_seconds",
			Help:    "Wall time of scheduled job runs.",
			Buckets: []float64{.05, .25, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "galata_cron_cycles_skipped_total",
			Help: "Cycles skipped because another instance held the lock.",
		}, []string{"scheduler"}),
	}
	reg.MustRegister(m.runs, m.duration, m.skipped)
	return m
}

// ObserveRun records one finished job run; err decides the result label.
func (m *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	job = normalizeLabel(job)
	m.runs.WithLabelValues(job, result).Inc()
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *CronJobMetrics) IncSkipped(scheduler string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(scheduler)).Inc()
}

// normalizeLabel keeps empty label values out of the series.
func normalizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
