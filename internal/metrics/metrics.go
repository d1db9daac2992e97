// Package metrics registers the Prometheus collectors for the worker.
// Collector names share the walfleet_ prefix; label cardinality stays
// bounded because kinds, verbs and server names are small closed sets.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulerCycles counts completed scheduler cycles.
	SchedulerCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "walfleet_scheduler_cycles_total",
			Help: "Completed scheduler cycles",
		},
	)

	// TaskSelections counts selection outcomes by kind. A cycle that
	// selects nothing is normal; the counter makes long droughts visible.
	TaskSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walfleet_task_selections_total",
			Help: "Task selection outcomes per scheduler cycle",
		},
		[]string{"kind", "outcome"},
	)

	// TasksStarted counts dispatched tasks by kind.
	TasksStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walfleet_tasks_started_total",
			Help: "Tasks dispatched by the scheduler",
		},
		[]string{"kind"},
	)

	// TasksFinished counts finished tasks by kind and outcome.
	TasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walfleet_tasks_finished_total",
			Help: "Finished tasks by outcome",
		},
		[]string{"kind", "status"},
	)

	// TaskDuration observes task wall time by kind.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walfleet_task_duration_seconds",
			Help:    "Task wall time in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	// TasksInFlight gauges tasks currently running.
	TasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "walfleet_tasks_in_flight",
			Help: "Tasks currently running",
		},
	)

	// RemoteCommands counts admin client invocations by server and verb.
	RemoteCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walfleet_remote_commands_total",
			Help: "Admin client invocations",
		},
		[]string{"server", "verb", "status"},
	)

	// RemoteCommandDuration observes admin client invocation latency.
	RemoteCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walfleet_remote_command_duration_seconds",
			Help:    "Admin client invocation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)
)
