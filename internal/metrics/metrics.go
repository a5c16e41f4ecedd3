package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aibot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aibot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Conversation metrics
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aibot_turns_total",
			Help: "Total conversational turns",
		},
		[]string{"outcome"}, // "ok" or "error"
	)

	SummariesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aibot_summaries_total",
			Help: "Total overflow summarizations",
		},
	)

	TokensUsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aibot_tokens_used_total",
			Help: "Total completion tokens consumed",
		},
	)

	ImagesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aibot_images_generated_total",
			Help: "Total images generated",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aibot_commands_total",
			Help: "Total bot commands handled",
		},
		[]string{"command"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aibot_rate_limit_hits_total",
			Help: "Total turns rejected by the per-chat rate limit",
		},
	)

	// Infrastructure metrics
	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aibot_completion_latency_seconds",
			Help:    "Completion service call latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"op"}, // "turn", "summary", "reword", "image"
	)
)
