package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likeTogglesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "memories_client",
			Subsystem: "feed",
			Name:      "like_toggles_total",
			Help:      "Optimistic like toggles applied.",
		},
	)

	likeCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "memories_client",
			Subsystem: "feed",
			Name:      "like_compensations_total",
			Help:      "Optimistic like toggles reverted after a remote failure.",
		},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "memories_client",
			Subsystem: "feed",
			Name:      "stale_responses_total",
			Help:      "Feed responses discarded because a newer request was issued.",
		},
	)
)
