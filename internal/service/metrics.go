package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts storefront session activity.
type Metrics struct {
	mutations *prometheus.CounterVec
	conflicts prometheus.Counter
	sessions  *prometheus.CounterVec
}

// NewMetrics registers the storefront collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_session_changes_total",
			Help: "Session changes that were saved, by kind.",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_session_save_conflicts_total",
			Help: "Session saves rejected because another request changed the session first.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_sessions_total",
			Help: "Sessions started and ended.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.mutations, m.conflicts, m.sessions)
	return m
}

func (m *Metrics) change(kind string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) session(event string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event).Inc()
}
