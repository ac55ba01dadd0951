// Package metrics holds the prometheus collectors shared by the three services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const _namespace = "auction_sync"

var (
	// Bidding
	BidsPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "bidding",
			Name:      "bids_placed_total",
			Help:      "Bids recorded, by resulting status",
		},
		[]string{"status"},
	)

	AuctionsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "bidding",
			Name:      "auctions_finalized_total",
			Help:      "Auctions moved to Finished, by whether the item sold",
		},
		[]string{"sold"},
	)

	// Outbox
	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox entries delivered to the bus",
		},
		[]string{"event_type"},
	)

	OutboxPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "outbox",
			Name:      "publish_failures_total",
			Help:      "Relay batches that failed to publish and were released",
		},
	)

	OutboxReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "outbox",
			Name:      "reclaimed_total",
			Help:      "Stale relay claims released by the reaper",
		},
	)

	// Consumers
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "consumer",
			Name:      "events_handled_total",
			Help:      "Consumed events, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	EventsRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "consumer",
			Name:      "events_retried_total",
			Help:      "Handler retries after a transient failure",
		},
		[]string{"kind"},
	)

	// Reconciliation
	ReconcilePulled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "search",
			Name:      "reconcile_pulled_total",
			Help:      "Items returned by the auction service during reconciliation",
		},
	)

	ReconcileApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "search",
			Name:      "reconcile_applied_total",
			Help:      "Pulled items that changed the projection",
		},
	)
)

// Outcome labels for EventsHandled.
const (
	OutcomeOK         = "ok"
	OutcomeDeadLetter = "dead_letter"
	OutcomeUnknown    = "unknown"
)
