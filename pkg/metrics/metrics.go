// Package metrics collects per-run counters for a scan. Each run owns its
// registry so concurrent runs and tests never share state; the registry can
// be dumped in the Prometheus text format for node_exporter's textfile
// collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "apitrail"

// Archive results.
const (
	ArchiveOK     = "ok"
	ArchiveCached = "cached"
	ArchiveError  = "error"
)

// Module results.
const (
	ModulePublic  = "public"
	ModuleSkipped = "skipped"
	ModuleError   = "error"
)

// Component results.
const (
	ComponentWritten = "written"
	ComponentFailed  = "failed"
)

// Run holds the collectors of one scan. A nil *Run is valid and records
// nothing.
type Run struct {
	Registry *prometheus.Registry

	archives   *prometheus.CounterVec
	modules    *prometheus.CounterVec
	components *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New returns a Run with a fresh registry.
func New() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		Registry: reg,
		archives: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archives processed by result",
		}, []string{"result"}),
		modules: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_total",
			Help:      "Class entries seen by result",
		}, []string{"result"}),
		components: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_total",
			Help:      "Components processed by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_duration_seconds",
			Help:      "Time to aggregate, diff and write one component",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// Archive counts one archive with the given result.
func (r *Run) Archive(result string) {
	if r == nil {
		return
	}
	r.archives.WithLabelValues(result).Inc()
}

// Modules counts n class entries with the given result.
func (r *Run) Modules(result string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.modules.WithLabelValues(result).Add(float64(n))
}

// Component counts one component with the given result.
func (r *Run) Component(result string) {
	if r == nil {
		return
	}
	r.components.WithLabelValues(result).Inc()
}

// ComponentDuration observes how long a component that actually ran took.
func (r *Run) ComponentDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Observe(d.Seconds())
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Run) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
