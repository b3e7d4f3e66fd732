package service

import (
	"time"

	"github.com/haierkeys/course-sync/internal/reconcile"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics 同步流程的 Prometheus 指标
type SyncMetrics struct {
	Registry *prometheus.Registry

	runs            prometheus.Counter
	changes         *prometheus.CounterVec
	downloadFailure prometheus.Counter
	notified        prometheus.Counter
	duration        prometheus.Histogram
	lastSuccess     prometheus.Gauge
}

// NewSyncMetrics 在独立的 Registry 上注册同步指标
func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_sync_runs_total",
			Help: "Number of sync runs.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_sync_changes_total",
			Help: "Detected changes by action.",
		}, []string{"action"}),
		downloadFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_sync_download_failures_total",
			Help: "Files whose download failed.",
		}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_sync_notified_total",
			Help: "Changes acknowledged by every notification channel.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "course_sync_run_duration_seconds",
			Help:    "Duration of sync runs.",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "course_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last sync run without errors.",
		}),
	}
	m.Registry.MustRegister(m.runs, m.changes, m.downloadFailure, m.notified, m.duration, m.lastSuccess)
	return m
}

// WriteToTextfile 以 node_exporter textfile 格式写出指标
func (m *SyncMetrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *SyncMetrics) observeRun(s reconcile.Summary, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.runs.Inc()
	m.changes.WithLabelValues("new").Add(float64(s.New))
	m.changes.WithLabelValues("modified").Add(float64(s.Modified))
	m.changes.WithLabelValues("moved").Add(float64(s.Moved))
	m.changes.WithLabelValues("deleted").Add(float64(s.Deleted))
	m.duration.Observe(took.Seconds())
	if err == nil {
		m.lastSuccess.SetToCurrentTime()
	}
}

func (m *SyncMetrics) downloadFailed() {
	if m != nil {
		m.downloadFailure.Inc()
	}
}

func (m *SyncMetrics) observeNotified(n int) {
	if m != nil {
		m.notified.Add(float64(n))
	}
}
