package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "leadping",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// LeadsReceivedTotal counts inbound lead webhook events by outcome of the
// account lookup ("ok", "unknown_account", or "error").
var LeadsReceivedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leadping",
		Subsystem: "webhook",
		Name:      "leads_received_total",
		Help:      "Inbound lead events received, by lookup outcome.",
	},
	[]string{"outcome"},
)

// DispatchesTotal counts outbound dispatch attempts by result
// ("delivered", "gateway_error", "duplicate").
var DispatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leadping",
		Subsystem: "webhook",
		Name:      "dispatches_total",
		Help:      "Outbound message dispatches, by result.",
	},
	[]string{"result"},
)

// DispatchDuration tracks end-to-end lead dispatch latency.
var DispatchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "leadping",
		Subsystem: "webhook",
		Name:      "dispatch_duration_seconds",
		Help:      "Lead dispatch duration in seconds, lookup through gateway call.",
		Buckets:   prometheus.DefBuckets,
	},
)

// LeadsDeduplicatedTotal counts suppressed duplicate lead submissions.
var LeadsDeduplicatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "leadping",
		Subsystem: "webhook",
		Name:      "leads_deduplicated_total",
		Help:      "Duplicate lead submissions suppressed within the dedup window.",
	},
)

// MFAVerificationsTotal counts MFA verification attempts by result
// ("verified", "rejected", "provider_error").
var MFAVerificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "leadping",
		Subsystem: "mfa",
		Name:      "verifications_total",
		Help:      "MFA challenge verifications, by result.",
	},
	[]string{"result"},
)

// NewMetricsRegistry creates a Prometheus registry with default and custom collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
		LeadsReceivedTotal,
		DispatchesTotal,
		DispatchDuration,
		LeadsDeduplicatedTotal,
		MFAVerificationsTotal,
	)
	return reg
}
