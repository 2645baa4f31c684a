// Package metrics records controller outcomes as Prometheus series.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roster"

// Collector owns a private registry so tests and multiple instances never
// collide on the global one. A nil *Collector ignores every call.
type Collector struct {
	registry  *prometheus.Registry
	actions   *prometheus.CounterVec
	responses *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	users     prometheus.Gauge
	version   prometheus.Gauge
}

// New registers the roster series on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Controller operations by outcome (applied, rejected, failed).",
		}, []string{"op", "outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_responses_total",
			Help:      "HTTP status codes returned by the user directory.",
		}, []string{"op", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Wall time from dispatch to resolution of a controller operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Number of users in the published snapshot.",
		}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_version",
			Help:      "Version of the published snapshot.",
		}),
	}
	reg.MustRegister(
		c.actions,
		c.responses,
		c.duration,
		c.users,
		c.version,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveAction records one resolved operation. status is zero when no
// response was received.
func (c *Collector) ObserveAction(op, outcome string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.actions.WithLabelValues(op, outcome).Inc()
	if status != 0 {
		c.responses.WithLabelValues(op, strconv.Itoa(status)).Inc()
	}
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveSnapshot tracks the size and version of the published list.
func (c *Collector) ObserveSnapshot(users int, version uint64) {
	if c == nil {
		return
	}
	c.users.Set(float64(users))
	c.version.Set(float64(version))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
