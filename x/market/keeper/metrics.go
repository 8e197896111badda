package keeper

import (
	"math/big"
	"sync"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MarketMetrics holds all Prometheus metrics for the market module
type MarketMetrics struct {
	// Auction metrics
	AuctionsCreated prometheus.Counter
	AuctionsClosed  *prometheus.CounterVec
	BidsPlaced      prometheus.Counter

	// Task metrics
	TaskTransitions *prometheus.CounterVec
	ReputationVotes *prometheus.CounterVec

	// Escrow metrics
	EscrowLocked  *prometheus.CounterVec
	EscrowSettled *prometheus.CounterVec

	// Engine metrics
	CommitConflicts     *prometheus.CounterVec
	DeadlineTransitions *prometheus.CounterVec
	BlockerErrors       *prometheus.CounterVec
	QueriesRateLimited  prometheus.Counter
}

var (
	marketMetricsOnce sync.Once
	marketMetrics     *MarketMetrics
)

// NewMarketMetrics creates and registers market metrics (singleton pattern)
func NewMarketMetrics() *MarketMetrics {
	marketMetricsOnce.Do(func() {
		marketMetrics = &MarketMetrics{
			AuctionsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "auctions_created_total",
					Help:      "Total auctions opened",
				},
			),
			AuctionsClosed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "auctions_closed_total",
					Help:      "Total auctions closed by final state and reason",
				},
				[]string{"state", "reason"},
			),
			BidsPlaced: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "bids_placed_total",
					Help:      "Total bids placed or replaced",
				},
			),
			TaskTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "task_transitions_total",
					Help:      "Total task transitions by target state",
				},
				[]string{"state"},
			),
			ReputationVotes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "reputation_votes_total",
					Help:      "Total provider reputation votes",
				},
				[]string{"upvote"},
			),
			EscrowLocked: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "escrow_locked_amount_total",
					Help:      "Total amount locked in escrow",
				},
				[]string{"denom"},
			),
			EscrowSettled: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "escrow_settled_total",
					Help:      "Total escrow settlements by outcome",
				},
				[]string{"outcome"},
			),
			CommitConflicts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "commit_conflicts_total",
					Help:      "Total transitions re-executed after a concurrent commit",
				},
				[]string{"operation"},
			),
			DeadlineTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "deadline_transitions_total",
					Help:      "Total transitions forced by the deadline monitor",
				},
				[]string{"operation"},
			),
			BlockerErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "blocker_errors_total",
					Help:      "Total failed forced transitions by severity",
				},
				[]string{"severity"},
			),
			QueriesRateLimited: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "market",
					Name:      "queries_rate_limited_total",
					Help:      "Total queries rejected by the rate limiter",
				},
			),
		}
	})
	return marketMetrics
}

// amountFloat converts an amount for metric reporting. Precision loss is
// acceptable here.
func amountFloat(amount math.Int) float64 {
	if amount.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	return f
}
