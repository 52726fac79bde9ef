package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts what happens to assets and scopes.
type Metrics interface {
	IncSelection(scope, outcome string)
	IncPublish(scope, status string)
	IncEviction(scope, status string)
	AddEvicted(scope string, n int)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncSelection(string, string) {}
func (Noop) IncPublish(string, string)   {}
func (Noop) IncEviction(string, string)  {}
func (Noop) AddEvicted(string, int)      {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	selections *prometheus.CounterVec
	publishes  *prometheus.CounterVec
	evictions  *prometheus.CounterVec
	evicted    *prometheus.CounterVec
	gatherer   prometheus.Gatherer
}

// NewProm registers the counters on reg. A nil reg uses a fresh registry.
func NewProm(namespace string, reg *prometheus.Registry) *Prom {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prom{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Random selections by scope and outcome",
		}, []string{"scope", "outcome"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Derived asset uploads by scope and status",
		}, []string{"scope", "status"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Scope wipes by scope and status",
		}, []string{"scope", "status"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_objects_total",
			Help:      "Objects deleted by scope wipes",
		}, []string{"scope"}),
		gatherer: reg,
	}
	reg.MustRegister(p.selections, p.publishes, p.evictions, p.evicted)
	return p
}

func (p *Prom) IncSelection(scope, outcome string) {
	p.selections.WithLabelValues(scope, outcome).Inc()
}

func (p *Prom) IncPublish(scope, status string) {
	p.publishes.WithLabelValues(scope, status).Inc()
}

func (p *Prom) IncEviction(scope, status string) {
	p.evictions.WithLabelValues(scope, status).Inc()
}

func (p *Prom) AddEvicted(scope string, n int) {
	if n <= 0 {
		return
	}
	p.evicted.WithLabelValues(scope).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

var (
	_ Metrics = Noop{}
	_ Metrics = (*Prom)(nil)
)
