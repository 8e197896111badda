package keeper

import (
	"time"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// SetBeforeCommitHook installs fn to run between computing and committing
// every atomic transition. Pass nil to remove it.
func (k *Keeper) SetBeforeCommitHook(fn func(ctx sdk.Context)) {
	k.beforeCommit = fn
}

// SetClockForTesting replaces the limiter's clock.
func (rl *RateLimiter) SetClockForTesting(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}

// HasTaskDeadlineForTesting reports whether a task has a scheduled forced transition.
func (k Keeper) HasTaskDeadlineForTesting(ctx sdk.Context, taskID uint64) bool {
	return k.getStore(ctx).Has(DeadlineReverseKey(deadlineKindTask, taskID))
}

// HasAuctionDeadlineForTesting reports whether an auction has a scheduled forced transition.
func (k Keeper) HasAuctionDeadlineForTesting(ctx sdk.Context, auctionID uint64) bool {
	return k.getStore(ctx).Has(DeadlineReverseKey(deadlineKindAuction, auctionID))
}

// StoreForTesting exposes the raw module store.
func (k Keeper) StoreForTesting(ctx sdk.Context) storetypes.KVStore {
	return k.getStore(ctx)
}

// ReleaseEscrowForTesting settles a task's escrow to the provider.
func (k Keeper) ReleaseEscrowForTesting(ctx sdk.Context, taskID uint64) (types.Escrow, error) {
	return k.releaseEscrow(ctx, taskID)
}

// RefundEscrowForTesting settles a task's escrow to the client.
func (k Keeper) RefundEscrowForTesting(ctx sdk.Context, taskID uint64) (types.Escrow, error) {
	return k.refundEscrow(ctx, taskID)
}

// SplitEscrowForTesting settles a task's escrow between both parties.
func (k Keeper) SplitEscrowForTesting(ctx sdk.Context, taskID uint64, providerBps uint32) (types.Escrow, error) {
	return k.splitEscrow(ctx, taskID, providerBps)
}
