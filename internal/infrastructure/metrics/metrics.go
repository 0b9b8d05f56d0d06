// Package metrics exposes Prometheus collectors for the ADR controllers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by every controller in the process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	status        *prometheus.GaugeVec
	ticks         *prometheus.CounterVec
	quenches      *prometheus.CounterVec
	facadeErrors  *prometheus.CounterVec
	samples       *prometheus.CounterVec
	magnetCurrent *prometheus.GaugeVec
	orphans       *prometheus.GaugeVec
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "adr_status",
			Help: "1 for the current cycle status of each unit, 0 otherwise.",
		}, []string{"unit", "status"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adr_ticks_total",
			Help: "Cycle loop iterations.",
		}, []string{"unit"}),
		quenches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adr_quenches_total",
			Help: "Quenches detected while ramping.",
		}, []string{"unit"}),
		facadeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adr_facade_errors_total",
			Help: "Failed instrument calls.",
		}, []string{"unit"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adr_recording_samples_total",
			Help: "Temperature samples appended to datasets.",
		}, []string{"unit"}),
		magnetCurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "adr_magnet_current_amps",
			Help: "Last measured magnet current.",
		}, []string{"unit"}),
		orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "adr_orphaned_peripherals",
			Help: "Declared peripherals not currently bound.",
		}, []string{"unit"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.status, m.ticks, m.quenches, m.facadeErrors,
		m.samples, m.magnetCurrent, m.orphans,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetStatus marks current as the active status of unit among all.
func (m *Metrics) SetStatus(unit, current string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.status.WithLabelValues(unit, s).Set(v)
	}
}

// Tick counts one cycle loop iteration.
func (m *Metrics) Tick(unit string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(unit).Inc()
}

// Quench counts a detected quench.
func (m *Metrics) Quench(unit string) {
	if m == nil {
		return
	}
	m.quenches.WithLabelValues(unit).Inc()
}

// FacadeError counts a failed instrument call.
func (m *Metrics) FacadeError(unit string) {
	if m == nil {
		return
	}
	m.facadeErrors.WithLabelValues(unit).Inc()
}

// Sample counts a recorded sample.
func (m *Metrics) Sample(unit string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(unit).Inc()
}

// MagnetCurrent records the last measured magnet current.
func (m *Metrics) MagnetCurrent(unit string, amps float64) {
	if m == nil {
		return
	}
	m.magnetCurrent.WithLabelValues(unit).Set(amps)
}

// Orphans records the number of orphaned peripherals.
func (m *Metrics) Orphans(unit string, n int) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(unit).Set(float64(n))
}
