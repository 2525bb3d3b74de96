// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanOutcomes counts recorder results by outcome.
	ScanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardattend",
		Name:      "scan_outcomes_total",
		Help:      "Attendance recording attempts by outcome.",
	}, []string{"source", "outcome"})

	// TokensEmitted counts card tokens produced by server-side tokenizers.
	TokensEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardattend",
		Name:      "scanner_tokens_emitted_total",
		Help:      "Card tokens emitted from keystroke streams.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardattend",
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the per-IP rate limiter.",
	})

	// BrokerDropped counts events a slow subscriber missed.
	BrokerDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardattend",
		Name:      "broker_dropped_events_total",
		Help:      "Realtime events dropped because a subscriber was not keeping up.",
	}, []string{"backend"})
)
