package checkin

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports scan counters on the station's /metrics endpoint.
// Attempts counts every accepted scan; Scans counts resolved outcomes.
type Metrics struct {
	Attempts prometheus.Counter
	Scans    *prometheus.CounterVec
}

// NewMetrics builds and registers the station metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_scan_attempts_total",
			Help: "Scans accepted by the orchestrator, counted before the backend call resolves.",
		}),
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_scans_total",
			Help: "Resolved check-in outcomes.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Attempts, m.Scans)
	}
	return m
}
