package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks the Drive sync engine.
type SyncMetrics struct {
	items      *prometheus.CounterVec
	pending    prometheus.Gauge
	tick       prometheus.Histogram
	duplicates prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "galata_sync_items_total",
		Help: "Contributions processed by the Drive sync engine, by outcome.",
	}, []string{"outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "galata_sync_pending_contributions",
		Help: "Contributions waiting for upload at the start of the last tick.",
	})
	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "galata_sync_tick_duration_seconds",
		Help:    "Duration of one sync tick.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "galata_drive_folder_duplicates_total",
		Help: "Folder lookups that matched more than one Drive folder.",
	})
	reg.MustRegister(items, pending, tick, duplicates)
	return &SyncMetrics{
		items:      items,
		pending:    pending,
		tick:       tick,
		duplicates: duplicates,
	}
}

// IncItem counts one processed contribution.
func (s *SyncMetrics) IncItem(outcome string) {
	if s == nil || s.items == nil {
		return
	}
	s.items.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (s *SyncMetrics) SetPending(n int) {
	if s == nil || s.pending == nil {
		return
	}
	s.pending.Set(float64(n))
}

func (s *SyncMetrics) ObserveTick(duration time.Duration) {
	if s == nil || s.tick == nil {
		return
	}
	s.tick.Observe(duration.Seconds())
}

// IncFolderDuplicate flags an ambiguous folder lookup.
func (s *SyncMetrics) IncFolderDuplicate() {
	if s == nil || s.duplicates == nil {
		return
	}
	s.duplicates.Inc()
}
