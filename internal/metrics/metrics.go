package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	processSpawns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "spawns_total",
			Help:      "Number of successfully spawned background processes.",
		},
	)
	spawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "spawn_failures_total",
			Help:      "Number of start requests that failed before a record was created.",
		},
	)
	processEnds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "ends_total",
			Help:      "Number of processes that reached a terminal status.",
		}, []string{"status"},
	)
	killRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "kill_requests_total",
			Help:      "Number of explicit kill requests that started the termination protocol.",
		},
	)
	killEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "kill_escalations_total",
			Help:      "Number of terminations escalated to SIGKILL after the grace period.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "state_transitions_total",
			Help:      "Number of state machine transitions.",
		}, []string{"from", "to"},
	)
	trackedProcesses = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bgproc",
			Subsystem: "process",
			Name:      "tracked",
			Help:      "Tracked processes in the registry by liveness.",
		}, []string{"state"}, // alive | terminal
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		processSpawns, spawnFailures, processEnds, killRequests,
		killEscalations, stateTransitions, trackedProcesses,
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

// Handler returns an http.Handler serving the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncSpawn() {
	if regOK.Load() {
		processSpawns.Inc()
	}
}

func IncSpawnFailure() {
	if regOK.Load() {
		spawnFailures.Inc()
	}
}

func IncEnd(status string) {
	if regOK.Load() {
		processEnds.WithLabelValues(status).Inc()
	}
}

func IncKillRequest() {
	if regOK.Load() {
		killRequests.Inc()
	}
}

func IncKillEscalation() {
	if regOK.Load() {
		killEscalations.Inc()
	}
}

func RecordStateTransition(from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(from, to).Inc()
	}
}

func SetTracked(alive, terminal int) {
	if regOK.Load() {
		trackedProcesses.WithLabelValues("alive").Set(float64(alive))
		trackedProcesses.WithLabelValues("terminal").Set(float64(terminal))
	}
}
