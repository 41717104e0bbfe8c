package telemetry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunMetrics collects the outcome of one run in a private registry.
type RunMetrics struct {
	registry *prometheus.Registry

	rows          *prometheus.GaugeVec
	positives     *prometheus.GaugeVec
	features      prometheus.Gauge
	rocAUC        prometheus.Gauge
	f1            *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
	fallbacks     *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// NewRunMetrics registers the run gauges.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		rows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows per partition",
		}, []string{"partition"}),
		positives: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "dataset",
			Name:      "positive_rows",
			Help:      "Fraud-labelled rows per partition",
		}, []string{"partition"}),
		features: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "training",
			Name:      "features",
			Help:      "Width of the transformed feature matrix",
		}),
		rocAUC: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "evaluation",
			Name:      "roc_auc",
			Help:      "ROC AUC on the test partition",
		}),
		f1: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "evaluation",
			Name:      "f1_score",
			Help:      "F1 score per class on the test partition",
		}, []string{"class"}),
		stageDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "run",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage",
		}, []string{"stage"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gofraud",
			Subsystem: "run",
			Name:      "capability_fallbacks_total",
			Help:      "Requested capabilities that were substituted or skipped",
		}, []string{"capability"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gofraud",
			Subsystem: "run",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the run finished",
		}),
	}
}

func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *RunMetrics) RecordPartition(partition string, rows, positives int) {
	m.rows.WithLabelValues(partition).Set(float64(rows))
	m.positives.WithLabelValues(partition).Set(float64(positives))
}

func (m *RunMetrics) RecordFeatures(n int) {
	m.features.Set(float64(n))
}

func (m *RunMetrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (m *RunMetrics) RecordFallback(capability string) {
	m.fallbacks.WithLabelValues(capability).Inc()
}

// RecordEvaluation stores the ROC AUC and the F1 score of each class label.
func (m *RunMetrics) RecordEvaluation(rocAUC float64, f1ByClass map[int]float64) {
	m.rocAUC.Set(rocAUC)
	for class, f1 := range f1ByClass {
		m.f1.WithLabelValues(strconv.Itoa(class)).Set(f1)
	}
}

func (m *RunMetrics) MarkCompleted(t time.Time) {
	m.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *RunMetrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
