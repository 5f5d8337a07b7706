// Package metrics exports shell activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Neev4n/linecli/pkg/shell"
)

const namespace = "linecli"

type Metrics struct {
	registry *prometheus.Registry

	dispatches   *prometheus.CounterVec
	switches     *prometheus.CounterVec
	authFailures *prometheus.CounterVec
	logouts      prometheus.Counter
	sessions     *prometheus.GaugeVec
}

// New creates the collectors on a registry of their own, alongside the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dispatched_total",
			Help:      "Commands dispatched, by command name.",
		}, []string{"command"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_switches_total",
			Help:      "Successful user switches, by target user.",
		}, []string{"user"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected passwords, by user.",
		}, []string{"user"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_logouts_total",
			Help:      "Users returned to guest after the idle timeout.",
		}),
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open sessions, by transport.",
		}, []string{"transport"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.dispatches,
		m.switches,
		m.authFailures,
		m.logouts,
		m.sessions,
	)
	return m
}

// Hooks feeds the counters from a shell.
func (m *Metrics) Hooks() shell.Hooks {
	return shell.Hooks{
		OnDispatch: func(user, command string) {
			m.dispatches.WithLabelValues(command).Inc()
		},
		OnSwitch: func(from, to string) {
			m.switches.WithLabelValues(to).Inc()
		},
		OnAuthFailure: func(user string) {
			m.authFailures.WithLabelValues(user).Inc()
		},
		OnLogout: func(user string) {
			m.logouts.Inc()
		},
	}
}

// SessionOpened counts a session on transport until the returned func runs.
func (m *Metrics) SessionOpened(transport string) (closed func()) {
	g := m.sessions.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
