// SPDX-License-Identifier: MIT

// Package metrics exports sweep statistics to Prometheus.
//
// A Recorder is a walker.Observer: register it with walker.WithObserver and
// every completed sweep updates the counters, gauges and histogram below. The
// Recorder owns its registry, so several simulations in one process never
// collide on metric names.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/katalvlaran/dqmc/walker"
)

const namespace = "dqmc"

// Recorder holds the sweep metrics.
type Recorder struct {
	reg *prometheus.Registry

	sweeps      *prometheus.CounterVec
	proposals   prometheus.Counter
	accepted    prometheus.Counter
	checkpoints prometheus.Counter
	drift       prometheus.Counter
	wrapError   *prometheus.GaugeVec
	configSign  prometheus.Gauge
	duration    *prometheus.HistogramVec
}

// NewRecorder builds a Recorder on a fresh registry that also carries the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return NewRecorderWith(reg)
}

// NewRecorderWith registers the sweep metrics on reg.
func NewRecorderWith(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		sweeps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Completed sweeps by direction.",
		}, []string{"direction"}),
		proposals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Metropolis proposals.",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepted_total",
			Help:      "Accepted Metropolis proposals.",
		}),
		checkpoints: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Stabilization checkpoints.",
		}),
		drift: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_events_total",
			Help:      "Checkpoints whose wrap error exceeded the drift bound.",
		}),
		wrapError: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wrap_error",
			Help:      "Largest wrap error of the last sweep, by direction.",
		}, []string{"direction"}),
		configSign: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_sign",
			Help:      "Configuration sign after the last sweep.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one sweep.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"direction"}),
	}
}

// SweepDone implements walker.Observer.
func (r *Recorder) SweepDone(rep walker.SweepReport) {
	dir := string(rep.Direction)
	r.sweeps.WithLabelValues(dir).Inc()
	r.proposals.Add(float64(rep.Acceptance.Proposals))
	r.accepted.Add(float64(rep.Acceptance.Accepted))
	r.checkpoints.Add(float64(rep.Checkpoints))
	r.drift.Add(float64(rep.DriftEvents))
	r.wrapError.WithLabelValues(dir).Set(rep.WrapError)
	r.configSign.Set(rep.ConfigSign)
	r.duration.WithLabelValues(dir).Observe(rep.Duration.Seconds())
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
