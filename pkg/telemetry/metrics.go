package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── API ─────────────────────────────────────────────────────────────────────

	APIRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoff",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method", "status"})

	APITaskActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "api",
		Name:      "task_actions_total",
		Help:      "Task lifecycle actions performed, labelled by action and outcome.",
	}, []string{"action", "outcome"})

	APIVersionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "api",
		Name:      "version_conflicts_total",
		Help:      "Task writes rejected because another write landed first.",
	})

	APILoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "api",
		Name:      "logins_total",
		Help:      "Login attempts, labelled by outcome.",
	}, []string{"outcome"})

	APICacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "api",
		Name:      "task_cache_total",
		Help:      "Task cache lookups, labelled hit or miss.",
	}, []string{"result"})

	// ─── Notifier ────────────────────────────────────────────────────────────────

	NotifierEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "notifier",
		Name:      "events_total",
		Help:      "Task events consumed, labelled by event type and delivery outcome.",
	}, []string{"type", "outcome"})

	NotifierRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "notifier",
		Name:      "retries_total",
		Help:      "Delivery retry attempts, labelled by channel.",
	}, []string{"channel"})

	NotifierDLQTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "notifier",
		Name:      "dlq_total",
		Help:      "Events forwarded to the dead-letter topic after delivery gave up.",
	})

	NotifierDeliveryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoff",
		Subsystem: "notifier",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering one notification.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"channel"})

	// ─── Payroll ─────────────────────────────────────────────────────────────────

	PayrollRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoff",
		Subsystem: "payroll",
		Name:      "runs_total",
		Help:      "Digest runs, labelled by outcome.",
	}, []string{"outcome"})

	PayrollUnpaidTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoff",
		Subsystem: "payroll",
		Name:      "unpaid_tasks",
		Help:      "Approved tasks still awaiting payment, from the last digest run.",
	})

	PayrollIsLeader = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoff",
		Subsystem: "payroll",
		Name:      "is_leader",
		Help:      "1 when this instance holds the scheduler lease.",
	})
)
