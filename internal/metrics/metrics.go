// Package metrics renders last-run gauges in the Prometheus textfile
// format, for hosts that run a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"grimm.is/rime/internal/reconcile"
)

// Registry holds the per-run metrics.
type Registry struct {
	reg *prometheus.Registry

	RunTimestamp prometheus.Gauge
	RunDuration  prometheus.Gauge
	RunSuccess   prometheus.Gauge
	RunMutations prometheus.Gauge
	Rules        *prometheus.GaugeVec
}

// NewRegistry creates an isolated registry. The process-global default
// registry would drag the Go runtime collectors into the textfile.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{reg: reg}

	r.RunTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Name: "rime_run_timestamp_seconds",
		Help: "Unix time the last reconciliation run finished",
	})

	r.RunDuration = factory.NewGauge(prometheus.GaugeOpts{
		Name: "rime_run_duration_seconds",
		Help: "Wall clock duration of the last run",
	})

	r.RunSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Name: "rime_run_success",
		Help: "1 when the last run completed without a fatal error",
	})

	r.RunMutations = factory.NewGauge(prometheus.GaugeOpts{
		Name: "rime_run_mutations",
		Help: "Store writes the last run performed",
	})

	r.Rules = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rime_run_rules",
		Help: "Rules by outcome in the last run",
	}, []string{"state"})

	return r
}

// Observe sets every gauge from a finished run.
func (r *Registry) Observe(rep *reconcile.Report, success bool) {
	r.RunTimestamp.Set(float64(rep.Finished.Unix()))
	r.RunDuration.Set(rep.Duration().Seconds())
	if success {
		r.RunSuccess.Set(1)
	} else {
		r.RunSuccess.Set(0)
	}
	r.RunMutations.Set(float64(rep.Mutations()))
	r.Rules.WithLabelValues("updated").Set(float64(rep.Updated))
	r.Rules.WithLabelValues("created").Set(float64(rep.Created))
	r.Rules.WithLabelValues("disabled").Set(float64(rep.Disabled))
	r.Rules.WithLabelValues("unchanged").Set(float64(rep.Unchanged))
	r.Rules.WithLabelValues("ignored").Set(float64(rep.Ignored))
	r.Rules.WithLabelValues("rejected").Set(float64(rep.Rejected))
	r.Rules.WithLabelValues("failed").Set(float64(rep.Failed))
}

// WriteFile renders the registry at path. WriteToTextfile replaces the
// file atomically, so a scraping collector never sees a partial write.
func (r *Registry) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
