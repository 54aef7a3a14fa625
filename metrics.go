package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likesEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "memories_client",
			Name:      "likes_enqueued_total",
			Help:      "Like toggles accepted into the shard executor.",
		},
	)

	fetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memories_client",
			Name:      "fetch_retries_total",
			Help:      "Feed reads retried after a recoverable error.",
		},
		[]string{"op"},
	)
)
