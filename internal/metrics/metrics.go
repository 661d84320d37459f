package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docvec"

// Recorder groups the pipeline's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	documents    *prometheus.CounterVec
	records      *prometheus.CounterVec
	augmentCalls *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	deleted      prometheus.Counter
	reconcile    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by file type and outcome.",
		}, []string{"type", "status"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Vector records written by file type.",
		}, []string{"type"}),
		augmentCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "augment_calls_total",
			Help:      "Remote augmentation calls by call kind and outcome.",
		}, []string{"call", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end document ingestion latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"type"}),
		deleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_records_total",
			Help:      "Vector records removed by delete requests.",
		}),
		reconcile: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_actions_total",
			Help:      "Reconciliation actions by kind.",
		}, []string{"action"}),
	}
}

func (r *Recorder) ObserveDocument(fileType, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(fileType, status).Inc()
	r.duration.WithLabelValues(fileType).Observe(d.Seconds())
}

func (r *Recorder) AddRecords(fileType string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(fileType).Add(float64(n))
}

func (r *Recorder) AugmentCall(call string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.augmentCalls.WithLabelValues(call, status).Inc()
}

func (r *Recorder) AddDeleted(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.deleted.Add(float64(n))
}

func (r *Recorder) ReconcileAction(action string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.reconcile.WithLabelValues(action).Add(float64(n))
}
