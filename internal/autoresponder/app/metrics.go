package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCyclesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autoresponder",
			Name:      "poll_cycles_total",
			Help:      "Total mailbox poll cycles.",
		},
		[]string{"result"}, // "ok", "error", "skipped"
	)

	messagesProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autoresponder",
			Name:      "messages_processed_total",
			Help:      "Total unread messages processed by the poller.",
		},
		[]string{"status"}, // "drafted", "error"
	)

	generationFallbackCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "autoresponder",
			Name:      "generation_fallback_total",
			Help:      "Total replies substituted with the fallback text.",
		},
	)

	messageProcessingDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "autoresponder",
			Name:      "message_processing_duration_seconds",
			Help:      "Duration of per-message draft creation.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	draftsFinalizedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autoresponder",
			Name:      "drafts_finalized_total",
			Help:      "Total draft records moved to a terminal status.",
		},
		[]string{"status"}, // "sent_no_edit", "sent_with_edit", "rejected"
	)
)
