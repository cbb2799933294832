package metrics

import "github.com/prometheus/client_golang/prometheus"

// SubmissionMetrics counts contribution form submissions by result.
type SubmissionMetrics struct {
	results *prometheus.CounterVec
}

func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "galata_submissions_total",
		Help: "Contribution submissions by result (accepted, rejected, failed).",
	}, []string{"result", "has_file"})
	reg.MustRegister(results)
	return &SubmissionMetrics{results: results}
}

func (s *SubmissionMetrics) Inc(result string, hasFile bool) {
	if s == nil || s.results == nil {
		return
	}
	label := "false"
	if hasFile {
		label = "true"
	}
	s.results.WithLabelValues(normalizeLabel(result), label).Inc()
}
