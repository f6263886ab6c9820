package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	startAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsrv",
			Subsystem: "frontend",
			Name:      "start_attempts_total",
			Help:      "Number of dev server spawn attempts per candidate port.",
		}, []string{"port"},
	)
	attemptFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsrv",
			Subsystem: "frontend",
			Name:      "attempt_failures_total",
			Help:      "Failed spawn attempts by terminal readiness state.",
		}, []string{"reason"},
	)
	portReassignments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devsrv",
			Subsystem: "frontend",
			Name:      "port_reassignments_total",
			Help:      "Times the dev server announced a port other than the assigned one.",
		},
	)
	readinessDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "devsrv",
			Subsystem: "frontend",
			Name:      "readiness_duration_seconds",
			Help:      "Time from spawn to first 200 response on a successful attempt.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
	)
	running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devsrv",
			Subsystem: "frontend",
			Name:      "running",
			Help:      "Whether a dev server child is currently owned (1) or not (0).",
		},
	)
)

// Register registers all metrics with the provided registerer. Safe to
// call multiple times; calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		startAttempts, attemptFailures, portReassignments, readinessDuration, running,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

func IncAttempt(port int)             { startAttempts.WithLabelValues(strconv.Itoa(port)).Inc() }
func IncAttemptFailure(reason string) { attemptFailures.WithLabelValues(reason).Inc() }
func IncPortReassignment()            { portReassignments.Inc() }
func ObserveReadinessDuration(sec float64) {
	readinessDuration.Observe(sec)
}

func SetRunning(up bool) {
	if up {
		running.Set(1)
	} else {
		running.Set(0)
	}
}

// Handler serves the default registry over HTTP, for mounting on the
// control API.
func Handler() http.Handler { return promhttp.Handler() }
