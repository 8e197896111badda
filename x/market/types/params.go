package types

import (
	"fmt"
	"math"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BasisPoints is the denominator for basis-point ratios.
const BasisPoints = 10_000

// MaxDurationSeconds is the longest whole-second span a time.Duration holds.
const MaxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// Seconds converts whole seconds to a time.Duration, saturating at
// MaxDurationSeconds.
func Seconds(s uint64) time.Duration {
	if s > MaxDurationSeconds {
		s = MaxDurationSeconds
	}
	return time.Duration(s) * time.Second
}

// Params defines the tunable parameters of the market module.
type Params struct {
	// Denom is the coin denomination escrow is locked in.
	Denom string `json:"denom"`
	// TimeoutMarginFactor scales a task's declared duration into the margin
	// that must elapse after its execution deadline before it can be
	// invalidated.
	TimeoutMarginFactor uint64 `json:"timeout_margin_factor"`
	// CompletionGraceSeconds is how long after the execution deadline a
	// submission still counts as on time.
	CompletionGraceSeconds uint64 `json:"completion_grace_seconds"`
	// InvalidationProviderShareBps is the provider's share of escrow when a
	// task is invalidated. Zero refunds the client in full.
	InvalidationProviderShareBps uint32 `json:"invalidation_provider_share_bps"`
	// MaxCommitRetries bounds re-execution after a concurrent modification.
	MaxCommitRetries uint32 `json:"max_commit_retries"`
	MaxBidsPerAuction uint32 `json:"max_bids_per_auction"`
	// MaxDeadlineSweep bounds the forced transitions applied per sweep.
	MaxDeadlineSweep uint32 `json:"max_deadline_sweep"`
}

// DefaultParams returns default market parameters
func DefaultParams() Params {
	return Params{
		Denom:                        "upaw",
		TimeoutMarginFactor:          60,
		CompletionGraceSeconds:       60,
		InvalidationProviderShareBps: 0,
		MaxCommitRetries:             3,
		MaxBidsPerAuction:            100,
		MaxDeadlineSweep:             100,
	}
}

// Validate validates the market parameters
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.Denom); err != nil {
		return ErrInvalidParams.Wrapf("denom: %v", err)
	}
	if p.InvalidationProviderShareBps > BasisPoints {
		return ErrInvalidParams.Wrapf("invalidation provider share %d exceeds %d bps", p.InvalidationProviderShareBps, BasisPoints)
	}
	if p.MaxBidsPerAuction == 0 {
		return ErrInvalidParams.Wrap("max bids per auction must be positive")
	}
	if p.MaxDeadlineSweep == 0 {
		return ErrInvalidParams.Wrap("max deadline sweep must be positive")
	}
	return nil
}

// TimeoutMargin returns the invalidation margin for a task of the given
// declared duration.
func (p Params) TimeoutMargin(durationSeconds uint64) time.Duration {
	if p.TimeoutMarginFactor != 0 && durationSeconds > MaxDurationSeconds/p.TimeoutMarginFactor {
		return Seconds(MaxDurationSeconds)
	}
	return Seconds(p.TimeoutMarginFactor * durationSeconds)
}

// CompletionGrace returns the on-time submission grace period.
func (p Params) CompletionGrace() time.Duration {
	return Seconds(p.CompletionGraceSeconds)
}

func (p Params) String() string {
	return fmt.Sprintf(
		"denom=%s timeout_margin_factor=%d completion_grace=%ds invalidation_provider_share=%dbps max_commit_retries=%d max_bids=%d max_sweep=%d",
		p.Denom, p.TimeoutMarginFactor, p.CompletionGraceSeconds, p.InvalidationProviderShareBps,
		p.MaxCommitRetries, p.MaxBidsPerAuction, p.MaxDeadlineSweep,
	)
}
