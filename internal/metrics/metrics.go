package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksTotal tracks finished tasks by outcome (stored, failed, abandoned).
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artscout_tasks_total",
			Help: "Total number of finished tasks",
		},
		[]string{"outcome"},
	)

	// RetriesScheduled tracks retries by error class.
	RetriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artscout_retries_scheduled_total",
			Help: "Total number of retries scheduled",
		},
		[]string{"class"},
	)

	// BackoffDelay tracks the computed backoff delays.
	BackoffDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artscout_backoff_delay_seconds",
			Help:    "Backoff delay assigned to retrying tasks",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// ExhibitionsStored tracks persisted exhibitions, split new vs merged.
	ExhibitionsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artscout_exhibitions_stored_total",
			Help: "Total number of exhibitions persisted",
		},
		[]string{"kind"}, // "new" or "merged"
	)

	// ValidationRejections tracks drafts rejected before any store write.
	ValidationRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artscout_validation_rejections_total",
			Help: "Total number of candidate drafts rejected by validation",
		},
	)

	// StoreWriteLatency tracks candidate write latency.
	StoreWriteLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artscout_store_write_seconds",
			Help:    "Latency of atomic candidate writes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueueDepth tracks schedulable tasks (pending + retrying).
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artscout_queue_depth",
			Help: "Number of tasks currently eligible for or awaiting dispatch",
		},
	)

	// WorkersBusy tracks workers with an in-flight task.
	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artscout_workers_busy",
			Help: "Number of workers processing a task",
		},
	)

	// DispatchPaused is 1 while the coordinator has halted dispatch
	// because the store is unreachable.
	DispatchPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artscout_dispatch_paused",
			Help: "Whether task dispatch is paused on a store failure",
		},
	)
)
