package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/taskmarket/x/market/types"
)

func TestAtomic_ConflictRetriesExhausted(t *testing.T) {
	e := setupTest(t)
	id := e.createAuction(t)
	before := e.auction(t, id)

	// Every attempt sees the auction rewritten underneath it.
	calls := 0
	e.k.SetBeforeCommitHook(func(ctx sdk.Context) {
		calls++
		auction, err := e.k.GetAuction(ctx, id)
		require.NoError(t, err)
		require.NoError(t, e.k.SetAuction(ctx, auction))
	})
	defer e.k.SetBeforeCommitHook(nil)

	e.freshEvents()
	err := e.k.CancelAuction(e.Ctx, clientAddr, id)
	require.ErrorIs(t, err, types.ErrConflict)
	require.Equal(t, int(types.DefaultParams().MaxCommitRetries)+1, calls)

	auction := e.auction(t, id)
	require.Equal(t, types.AuctionStateOpen, auction.State)
	require.Equal(t, before.Version+uint64(calls), auction.Version)
	require.True(t, e.k.HasAuctionDeadlineForTesting(e.Ctx, id))
	require.Empty(t, e.Ctx.EventManager().Events())
}

func TestAtomic_RetrySucceedsAfterInterleavedCommit(t *testing.T) {
	e := setupTest(t)
	id := e.createAuction(t)

	fired := false
	e.k.SetBeforeCommitHook(func(ctx sdk.Context) {
		if fired {
			return
		}
		fired = true
		require.NoError(t, e.k.PlaceBid(ctx, providerAddr, id, math.NewInt(defaultPrice)))
	})
	defer e.k.SetBeforeCommitHook(nil)

	e.freshEvents()
	require.NoError(t, e.k.CancelAuction(e.Ctx, clientAddr, id))
	require.True(t, fired)

	require.Equal(t, types.AuctionStateCancelled, e.auction(t, id).State)
	_, err := e.k.GetBid(e.Ctx, id, providerAddr)
	require.NoError(t, err)

	// The bid committed first, so the cancellation carries the later event id.
	events := e.Ctx.EventManager().Events()
	bids := eventsOfType(events, types.EventTypeBidPlaced)
	cancels := eventsOfType(events, types.EventTypeAuctionCancelled)
	require.Len(t, bids, 1)
	require.Len(t, cancels, 1)
	require.Less(t, eventID(t, bids[0]), eventID(t, cancels[0]))
}

func TestAtomic_ConflictingCompletionsSettleOnce(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	// A duplicate completion lands first; the original must not pay twice.
	fired := false
	e.k.SetBeforeCommitHook(func(ctx sdk.Context) {
		if fired {
			return
		}
		fired = true
		state, _, err := e.k.CompleteTask(ctx, providerAddr, taskID, testSecret, 1, t0)
		require.NoError(t, err)
		require.Equal(t, types.TaskStateCompletedSuccessfully, state)
	})
	defer e.k.SetBeforeCommitHook(nil)

	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 1, t0)
	require.ErrorIs(t, err, types.ErrInvalidState)

	require.Equal(t, math.NewInt(defaultPrice), e.Balance(providerAddr))
	require.Equal(t, uint64(1), e.performance(t, providerAddr).Upvotes)
	e.requireInvariants(t)
}
