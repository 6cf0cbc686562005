// Package metrics exposes domain counters through Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

const namespace = "audition"

// Prometheus implements services.Metrics on its own registry so that
// several instances (tests, embedded servers) never collide.
type Prometheus struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	transitions *prometheus.CounterVec
	pushes      prometheus.Counter
	logins      *prometheus.CounterVec
	wsClients   prometheus.GaugeFunc
}

// New creates the collectors. clients, when non-nil, backs a gauge of
// connected realtime clients.
func New(clients func() int) *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	p := &Prometheus{
		registry: reg,
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Score submissions by outcome.",
			},
			[]string{"outcome"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "group_transitions_total",
				Help:      "Group instance state transitions by target state.",
			},
			[]string{"status"},
		),
		pushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_pushes_total",
			Help:      "Templates pushed to judges.",
		}),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pin_logins_total",
				Help:      "PIN login attempts by role and outcome.",
			},
			[]string{"role", "outcome"},
		),
	}

	if clients != nil {
		p.wsClients = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_clients",
			Help:      "Connected realtime clients.",
		}, func() float64 { return float64(clients()) })
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) ObserveSubmission(outcome string) {
	p.submissions.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveTransition(status models.GroupStatus) {
	p.transitions.WithLabelValues(string(status)).Inc()
}

func (p *Prometheus) ObservePush() {
	p.pushes.Inc()
}

func (p *Prometheus) ObserveLogin(role models.Role, outcome string) {
	p.logins.WithLabelValues(string(role), outcome).Inc()
}

// Registry returns the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
