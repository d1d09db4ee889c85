package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "gendocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	reg          *prom.Registry
	runDuration  prom.Histogram
	runOutcomes  *prom.CounterVec
	documents    *prom.CounterVec
	scannedFiles prom.Gauge
	testCases    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of document generation runs",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Generation runs by outcome",
		}, []string{"outcome"})
		pr.documents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_total",
			Help:      "Generated documents by kind and status",
		}, []string{"document", "status"})
		pr.scannedFiles = prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "scanned_files",
			Help:      "Files found by the last project scan",
		})
		pr.testCases = prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "test_cases",
			Help:      "Test cases found by the last test inventory",
		})
		reg.MustRegister(pr.runDuration, pr.runOutcomes, pr.documents, pr.scannedFiles, pr.testCases)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDocument(document, status string) {
	if p == nil || p.documents == nil {
		return
	}
	p.documents.WithLabelValues(document, status).Inc()
}

func (p *PrometheusRecorder) SetScannedFiles(n int) {
	if p == nil || p.scannedFiles == nil {
		return
	}
	p.scannedFiles.Set(float64(n))
}

func (p *PrometheusRecorder) SetTestCases(n int) {
	if p == nil || p.testCases == nil {
		return
	}
	p.testCases.Set(float64(n))
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// replacing path atomically. Parent directories are created as needed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
