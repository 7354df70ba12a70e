// Package metrics exposes the simulator's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "f1sim"

// Metrics groups the collectors that are updated by the session store and the HTTP server.
type Metrics struct {
	Registry        *prometheus.Registry
	LapsSimulated   prometheus.Counter
	Incidents       *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	RacesFinished   prometheus.Counter
	StepFailures    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LapsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "laps_simulated_total",
			Help:      "Number of laps simulated across all sessions.",
		}),
		Incidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_total",
			Help:      "Race incidents emitted by the simulation, by type.",
		}, []string{"type"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of simulation sessions held in memory.",
		}),
		RacesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_finished_total",
			Help:      "Number of simulated races that reached the chequered flag.",
		}),
		StepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Number of lap steps that failed and were discarded.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	m.Registry.MustRegister(
		m.LapsSimulated,
		m.Incidents,
		m.ActiveSessions,
		m.RacesFinished,
		m.StepFailures,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// pre-populate every incident type so dashboards see zeros
	for _, t := range domain.IncidentTypes {
		m.Incidents.WithLabelValues(t.String())
	}
	return m
}

// ObserveAdvance records the outcome of advancing a race from prev to next.
func (m *Metrics) ObserveAdvance(prev, next domain.RaceState) {
	if m == nil {
		return
	}
	// a reset starts a new session whose history begins with the formation lap
	laps, from := len(next.LapHistory)-1, 0
	if prev.SessionID == next.SessionID {
		laps, from = len(next.LapHistory)-len(prev.LapHistory), len(prev.Incidents)
	}
	if laps > 0 {
		m.LapsSimulated.Add(float64(laps))
	}
	for _, inc := range next.Incidents[from:] {
		m.Incidents.WithLabelValues(inc.Type.String()).Inc()
	}
	if next.Finished && (!prev.Finished || prev.SessionID != next.SessionID) {
		m.RacesFinished.Inc()
	}
}

// ObserveRequest records the latency of a handled HTTP request.
func (m *Metrics) ObserveRequest(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, code).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
