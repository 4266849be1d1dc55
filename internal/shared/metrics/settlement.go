package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_resolutions_total",
			Help: "Outcome resolution attempts by result (assigned, conflict_ignored, already_resolved)",
		},
		[]string{"result"},
	)

	lineProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "line_provider_requests_total",
			Help: "Calls from bet-service to event-service by operation and final result",
		},
		[]string{"op", "result"},
	)

	lineProviderRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "line_provider_retries_total",
			Help: "Retried attempts after transient failures",
		},
		[]string{"op"},
	)

	lineProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "line_provider_request_duration_ms",
			Help:    "Duration of line provider calls including retries, in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"op"},
	)

	eventCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_cache_lookups_total",
			Help: "Terminal event cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	betStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bet_status_derived_total",
			Help: "Derived bet statuses served",
		},
		[]string{"status"},
	)

	betsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bets_placed_total",
			Help: "Bet placement requests by result (created, rejected, error)",
		},
		[]string{"result"},
	)

	cacheWorkerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_cache_worker_messages_total",
			Help: "Event change messages handled by the cache worker, by stage",
		},
		[]string{"stage"},
	)
)

func RecordResolution(result string) { resolutionsTotal.WithLabelValues(result).Inc() }

// RecordLineProviderCall registra o resultado final de uma chamada e sua duração total
func RecordLineProviderCall(op, result string, started time.Time) {
	lineProviderRequests.WithLabelValues(op, result).Inc()
	lineProviderDuration.WithLabelValues(op).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordLineProviderRetry(op string) { lineProviderRetries.WithLabelValues(op).Inc() }

func RecordCacheLookup(result string) { eventCacheLookups.WithLabelValues(result).Inc() }

func RecordBetStatus(status string) { betStatusTotal.WithLabelValues(status).Inc() }

func RecordBetPlaced(result string) { betsPlacedTotal.WithLabelValues(result).Inc() }

func RecordCacheWorker(stage string) { cacheWorkerMessages.WithLabelValues(stage).Inc() }
