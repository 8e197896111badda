package keeper_test

import (
	"bytes"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/taskmarket/x/market/keeper"
	"github.com/paw-chain/taskmarket/x/market/types"
)

func TestProcessDeadlines_InvalidatesTimedOutTask(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	e.At(t0.Add(610 * time.Second))
	applied, err := e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
	require.Equal(t, types.TaskStateActivated, e.task(t, taskID).State)

	e.At(t0.Add(611 * time.Second))
	applied, err = e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateInvalidated, task.State)
	require.Equal(t, types.ReasonTimeout, task.CloseReason)
	require.Equal(t, types.PaymentStateRefunded, task.PaymentState)
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))
	require.False(t, e.k.HasTaskDeadlineForTesting(e.Ctx, taskID))

	perf := e.performance(t, providerAddr)
	require.Zero(t, perf.Upvotes)
	require.Zero(t, perf.Downvotes)

	// Re-running the monitor is a no-op.
	applied, err = e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
	require.Equal(t, task.Version, e.task(t, taskID).Version)
	e.requireInvariants(t)
}

func TestProcessDeadlines_CancelsUnactivatedTask(t *testing.T) {
	e := setupTest(t)
	taskID := e.awardTask(t, defaultPrice)
	deadline := e.task(t, taskID).TaskDeadline

	e.At(deadline)
	applied, err := e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Zero(t, applied)

	e.At(deadline.Add(time.Second))
	applied, err = e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateCancelled, task.State)
	require.Equal(t, types.ReasonNotActivated, task.CloseReason)
	require.Equal(t, types.PaymentStateRefunded, task.PaymentState)
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))
	require.True(t, e.ModuleBalance().IsZero())
	e.requireInvariants(t)
}

func TestProcessDeadlines_ExpiresAuctionWithoutSelection(t *testing.T) {
	e := setupTest(t)
	id := e.createAuction(t)
	require.NoError(t, e.k.PlaceBid(e.Ctx, providerAddr, id, math.NewInt(defaultPrice)))

	e.Advance(auctionWindow + time.Second)
	applied, err := e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	auction := e.auction(t, id)
	require.Equal(t, types.AuctionStateCancelled, auction.State)
	require.Equal(t, types.ReasonExpired, auction.CloseReason)
	require.False(t, e.k.HasAuctionDeadlineForTesting(e.Ctx, id))

	active, err := e.k.GetActiveAuctions(e.Ctx)
	require.NoError(t, err)
	require.Empty(t, active)
	e.requireInvariants(t)
}

func TestProcessDeadlines_SweepBound(t *testing.T) {
	e := setupTest(t)
	params := types.DefaultParams()
	params.MaxDeadlineSweep = 1
	require.NoError(t, e.k.SetParams(e.Ctx, params))

	first := e.createAuction(t)
	second := e.createAuction(t)
	e.Advance(auctionWindow + time.Second)

	applied, err := e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Equal(t, types.AuctionStateCancelled, e.auction(t, first).State)
	require.Equal(t, types.AuctionStateOpen, e.auction(t, second).State)

	applied, err = e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	require.Equal(t, types.AuctionStateCancelled, e.auction(t, second).State)

	applied, err = e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestBeginBlocker_EmitsSweepEvent(t *testing.T) {
	e := setupTest(t)
	id := e.createAuction(t)

	e.Advance(auctionWindow + time.Second)
	e.freshEvents()
	require.NoError(t, e.k.BeginBlocker(e.Ctx))
	require.Equal(t, types.AuctionStateCancelled, e.auction(t, id).State)

	events := e.Ctx.EventManager().Events()
	sweeps := eventsOfType(events, types.EventTypeDeadlineSweep)
	require.Len(t, sweeps, 1)
	require.Equal(t, "1", attribute(sweeps[0], types.AttributeKeyCount))

	cancelled := eventsOfType(events, types.EventTypeAuctionCancelled)
	require.Len(t, cancelled, 1)
	require.Equal(t, types.ReasonExpired, attribute(cancelled[0], types.AttributeKeyReason))

	// Nothing further is due.
	e.freshEvents()
	require.NoError(t, e.k.BeginBlocker(e.Ctx))
	require.Empty(t, e.Ctx.EventManager().Events())
}

func TestCompletionRacingMonitor(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)
	e.At(t0.Add(611 * time.Second))

	// The monitor commits between the completion computing its effects and
	// committing them.
	fired := false
	e.k.SetBeforeCommitHook(func(ctx sdk.Context) {
		if fired {
			return
		}
		fired = true
		applied, err := e.k.ProcessDeadlines(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, applied)
	})
	defer e.k.SetBeforeCommitHook(nil)

	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 5, t0.Add(5*time.Second))
	require.ErrorIs(t, err, types.ErrInvalidState)
	require.True(t, fired)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateInvalidated, task.State)
	require.Equal(t, types.ReasonTimeout, task.CloseReason)
	require.True(t, e.Balance(providerAddr).IsZero())
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))
	require.Zero(t, e.performance(t, providerAddr).Upvotes)
	e.requireInvariants(t)
}

func TestDeadlineKey_PreEpochSortsFirst(t *testing.T) {
	preEpoch := keeper.DeadlineKey(time.Date(1827, 1, 19, 0, 0, 0, 0, time.UTC), 1, 7)
	epoch := keeper.DeadlineKey(time.Unix(0, 0), 1, 7)
	later := keeper.DeadlineKey(time.Unix(1, 0), 1, 7)

	require.Equal(t, epoch, preEpoch)
	require.Negative(t, bytes.Compare(preEpoch, later))
}
