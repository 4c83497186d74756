// Package metrics exposes the process-wide Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsProcessed counts readings that completed the pipeline, by source.
	ReadingsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solarwatch_readings_processed_total",
		Help: "Readings classified and broadcast, labelled by source.",
	}, []string{"source"})

	// AlertsDispatched counts alert sends handed to the outbound channel.
	AlertsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarwatch_alerts_dispatched_total",
		Help: "Alert transmissions accepted by the dispatcher.",
	})

	// AlertsDropped counts dispatch requests rejected because a send was in flight.
	AlertsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarwatch_alerts_dropped_total",
		Help: "Alert requests dropped by the single-flight guard.",
	})

	// AlertsSuppressed counts notify decisions suppressed by the cooldown policy.
	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarwatch_alerts_suppressed_total",
		Help: "Fault verdicts suppressed by the notification policy.",
	})

	// AlertSendFailures counts transmissions that failed after acceptance.
	AlertSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarwatch_alert_send_failures_total",
		Help: "Accepted alert transmissions that failed.",
	})

	// BroadcastFailures counts per-subscriber delivery failures during fan-out.
	BroadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solarwatch_broadcast_failures_total",
		Help: "Subscriber deliveries that failed during broadcast.",
	})
)
