// Package metrics exposes validation runs as Prometheus metrics, written in
// the node_exporter textfile-collector format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
)

const namespace = "mcpstd"

// Metrics holds the run collectors on a private registry. Counters
// accumulate across runs observed by the same Metrics (watch mode); gauges
// describe the latest run.
type Metrics struct {
	reg *prometheus.Registry

	runs     prometheus.Counter
	findings *prometheus.CounterVec
	files    *prometheus.CounterVec
	success  prometheus.Gauge
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// New returns Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Validation runs performed.",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Validation findings by level and severity.",
		}, []string{"level", "severity"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_validated_total",
			Help:      "Documents validated by kind.",
		}, []string{"kind"}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the latest run found no errors, else 0.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the latest run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the latest run as a Unix timestamp.",
		}),
	}
	m.reg.MustRegister(m.runs, m.findings, m.files, m.success, m.duration, m.lastRun)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records rep.
func (m *Metrics) Observe(rep *manager.Report) {
	m.runs.Inc()
	for _, r := range rep.Results {
		m.findings.WithLabelValues(string(r.Level), r.Severity.String()).Inc()
	}
	for kind, n := range rep.Files {
		m.files.WithLabelValues(string(kind)).Add(float64(n))
	}
	if rep.Success() {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
	m.duration.Set(rep.Duration.Std().Seconds())
	m.lastRun.Set(float64(rep.StartedAt.UnixNano()) / 1e9)
}

// WriteTextfile writes every metric to path for the textfile collector.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Value returns the current value of the named metric series, for callers
// that report metrics without scraping. labels are name/value pairs.
func (m *Metrics) Value(name string, labels ...string) (float64, bool) {
	families, err := m.reg.Gather()
	if err != nil {
		return 0, false
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if !matchLabels(metric, labels) {
				continue
			}
			switch {
			case metric.Counter != nil:
				return metric.GetCounter().GetValue(), true
			case metric.Gauge != nil:
				return metric.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func matchLabels(metric *dto.Metric, labels []string) bool {
	want := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}
	got := 0
	for _, lp := range metric.GetLabel() {
		v, ok := want[lp.GetName()]
		if !ok {
			continue
		}
		if v != lp.GetValue() {
			return false
		}
		got++
	}
	return got == len(want)
}
