package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	metricProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elias",
		Name:      "provider_requests_total",
		Help:      "Provider calls made by the summarizer and responder, by outcome.",
	}, []string{"service", "provider", "outcome"})
	metricProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "elias",
		Name:      "provider_request_seconds",
		Help:      "Latency of provider calls.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"service", "provider"})
	metricFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elias",
		Name:      "local_fallbacks_total",
		Help:      "Answers produced locally because no provider answered.",
	}, []string{"service"})
	metricChatRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "elias",
		Name:      "chat_requests_total",
		Help:      "Messages handled by the orchestrator.",
	})
	metricStorageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "elias",
		Name:      "conversation_log_failures_total",
		Help:      "Exchanges that could not be written to the conversation log.",
	})
)

func RecordProviderCall(service, provider, outcome string, seconds float64) {
	metricProviderRequests.WithLabelValues(service, provider, outcome).Inc()
	metricProviderLatency.WithLabelValues(service, provider).Observe(seconds)
}

func RecordFallback(service string) {
	metricFallbacks.WithLabelValues(service).Inc()
}

func RecordChatRequest() {
	metricChatRequests.Inc()
}

func RecordStorageFailure() {
	metricStorageFailures.Inc()
}
