package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumer outcomes, recorded per topic and consumer group.
const (
	OutcomeReceived     = "received"
	OutcomeProcessed    = "processed"
	OutcomeRetried      = "retried"
	OutcomeGaveUp       = "gave_up"
	OutcomeDeadLettered = "dead_lettered"
)

// Producer outcomes, recorded per topic.
const (
	OutcomePublished      = "published"
	OutcomeFailed         = "failed"
	OutcomeShortCircuited = "short_circuited"
)

var (
	consumerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gogo",
			Subsystem: "kafka_consumer",
			Name:      "messages_total",
			Help:      "Messages seen by a consumer, by outcome.",
		},
		[]string{"topic", "group", "outcome"},
	)

	consumerHandleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gogo",
			Subsystem: "kafka_consumer",
			Name:      "handle_seconds",
			Help:      "Time spent handling one message, retries included.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic", "group"},
	)

	consumerDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gogo",
			Subsystem: "kafka_consumer",
			Name:      "duplicates_total",
			Help:      "Redelivered events skipped by the idempotency guard.",
		},
		[]string{"event_type"},
	)

	producerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gogo",
			Subsystem: "kafka_producer",
			Name:      "messages_total",
			Help:      "Publish attempts, by outcome.",
		},
		[]string{"topic", "outcome"},
	)

	publisherBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gogo",
			Subsystem: "kafka_producer",
			Name:      "breaker_state",
			Help:      "Publisher circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	producerPublishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gogo",
			Subsystem: "kafka_producer",
			Name:      "publish_seconds",
			Help:      "Time spent writing one event to the broker.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func countConsumed(topic, group, outcome string) {
	consumerMessages.WithLabelValues(topic, group, outcome).Inc()
}

func countPublished(topic, outcome string) {
	producerMessages.WithLabelValues(topic, outcome).Inc()
}
