package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/taskmarket/x/market/types"
)

const (
	resultsCIDv0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	resultsCIDv1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func TestActivateTask(t *testing.T) {
	e := setupTest(t)
	taskID := e.awardTask(t, defaultPrice)

	_, err := e.k.ActivateTask(e.Ctx, otherAddr, taskID, 10)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, err = e.k.ActivateTask(e.Ctx, providerAddr, 99, 10)
	require.ErrorIs(t, err, types.ErrTaskNotFound)
	_, err = e.k.ActivateTask(e.Ctx, providerAddr, taskID, 0)
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	_, err = e.k.ActivateTask(e.Ctx, providerAddr, taskID, uint64(taskWindow/time.Second)+1)
	require.ErrorIs(t, err, types.ErrDeadlineViolation)

	activatedAt, err := e.k.ActivateTask(e.Ctx, providerAddr, taskID, 10)
	require.NoError(t, err)
	require.Equal(t, e.Ctx.BlockTime(), activatedAt)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateActivated, task.State)
	require.Equal(t, providerAddr.String(), task.Provider)
	require.Equal(t, uint64(10), task.Duration)
	require.NotNil(t, task.ActivationTime)
	require.Equal(t, activatedAt, *task.ActivationTime)

	_, err = e.k.ActivateTask(e.Ctx, providerAddr, taskID, 10)
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestActivateTask_AfterTaskDeadline(t *testing.T) {
	e := setupTest(t)
	taskID := e.awardTask(t, defaultPrice)

	e.Advance(taskWindow)
	_, err := e.k.ActivateTask(e.Ctx, providerAddr, taskID, 1)
	require.ErrorIs(t, err, types.ErrDeadlineViolation)
}

func TestActivateTask_DurationBoundedByTaskDeadline(t *testing.T) {
	e := setupTest(t)
	taskID := e.awardTask(t, defaultPrice)
	remaining := uint64(taskWindow / time.Second)

	for _, duration := range []uint64{remaining + 1, 10_000_000_000, ^uint64(0)} {
		_, err := e.k.ActivateTask(e.Ctx, providerAddr, taskID, duration)
		require.ErrorIs(t, err, types.ErrDeadlineViolation, "duration %d", duration)
	}

	_, err := e.k.ActivateTask(e.Ctx, providerAddr, taskID, remaining)
	require.NoError(t, err)
}

func TestInvalidateTask_MultiYearDuration(t *testing.T) {
	e := setupTest(t)
	t0 := e.Ctx.BlockTime()
	auctionID, err := e.k.CreateAuction(e.Ctx, clientAddr,
		t0.Add(auctionWindow), t0.AddDate(10, 0, 0),
		types.CommitVerification(testSecret), "ipfs://task-spec",
	)
	require.NoError(t, err)
	require.NoError(t, e.k.PlaceBid(e.Ctx, providerAddr, auctionID, math.NewInt(defaultPrice)))
	taskID, err := e.k.AcceptBid(e.Ctx, clientAddr, auctionID, providerAddr)
	require.NoError(t, err)

	_, err = e.k.ActivateTask(e.Ctx, providerAddr, taskID, 200_000_000)
	require.NoError(t, err)

	params, err := e.k.GetParams(e.Ctx)
	require.NoError(t, err)
	task := e.task(t, taskID)
	timeoutAt := task.TimeoutAt(params)
	require.True(t, timeoutAt.After(task.ExecutionDeadline()))
	require.True(t, task.ExecutionDeadline().After(t0.AddDate(6, 0, 0)))

	for _, at := range []time.Time{
		t0.Add(time.Second),
		task.ExecutionDeadline().Add(time.Hour),
		timeoutAt.Add(-time.Second),
	} {
		e.At(at)
		require.ErrorIs(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID), types.ErrDeadlineViolation)
		applied, err := e.k.ProcessDeadlines(e.Ctx)
		require.NoError(t, err)
		require.Zero(t, applied)
		require.Equal(t, types.TaskStateActivated, e.task(t, taskID).State)
	}

	e.At(timeoutAt)
	require.NoError(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID))
	require.Equal(t, types.TaskStateInvalidated, e.task(t, taskID).State)
	require.Equal(t, types.PaymentStateRefunded, e.escrow(t, taskID).Status)
}

func TestCompleteTask_Success(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	e.Advance(5 * time.Second)
	state, late, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 5, t0.Add(5*time.Second))
	require.NoError(t, err)
	require.False(t, late)
	require.Equal(t, types.TaskStateCompletedSuccessfully, state)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateCompletedSuccessfully, task.State)
	require.Equal(t, types.PaymentStateReleased, task.PaymentState)
	require.Equal(t, testSecret, task.Verification)
	require.Equal(t, uint64(5), task.ReportedDuration)

	escrow := e.escrow(t, taskID)
	require.Equal(t, types.PaymentStateReleased, escrow.Status)
	require.Equal(t, math.NewInt(defaultPrice), escrow.ProviderAmount)
	require.True(t, escrow.ClientAmount.IsZero())

	require.Equal(t, math.NewInt(defaultPrice), e.Balance(providerAddr))
	require.Equal(t, math.NewInt(clientFunds-defaultPrice), e.Balance(clientAddr))
	require.True(t, e.ModuleBalance().IsZero())

	perf := e.performance(t, providerAddr)
	require.Equal(t, uint64(1), perf.Upvotes)
	require.Zero(t, perf.Downvotes)
	require.False(t, e.k.HasTaskDeadlineForTesting(e.Ctx, taskID))
	e.requireInvariants(t)
}

func TestCompleteTask_WrongVerification(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	e.Advance(5 * time.Second)
	state, late, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, "41", 5, t0.Add(5*time.Second))
	require.NoError(t, err)
	require.False(t, late)
	require.Equal(t, types.TaskStateCompletedUnsuccessfully, state)

	require.Equal(t, types.PaymentStateRefunded, e.escrow(t, taskID).Status)
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))
	require.True(t, e.Balance(providerAddr).IsZero())

	perf := e.performance(t, providerAddr)
	require.Zero(t, perf.Upvotes)
	require.Equal(t, uint64(1), perf.Downvotes)
	e.requireInvariants(t)
}

func TestCompleteTask_LateSubmissionInvalidates(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	// Execution deadline t0+10 plus 60s grace: t0+70 is the last on-time instant.
	e.Advance(80 * time.Second)
	state, late, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 71, t0.Add(71*time.Second))
	require.NoError(t, err)
	require.True(t, late)
	require.Equal(t, types.TaskStateInvalidated, state)

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateInvalidated, task.State)
	require.Equal(t, types.ReasonLateSubmission, task.CloseReason)
	require.Equal(t, types.PaymentStateRefunded, task.PaymentState)
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))

	perf := e.performance(t, providerAddr)
	require.Zero(t, perf.Upvotes)
	require.Zero(t, perf.Downvotes)
	e.requireInvariants(t)
}

func TestCompleteTask_OnTimeAtGraceBoundary(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	e.Advance(80 * time.Second)
	state, late, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 70, t0.Add(70*time.Second))
	require.NoError(t, err)
	require.False(t, late)
	require.Equal(t, types.TaskStateCompletedSuccessfully, state)
}

func TestCompleteTask_Rejections(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)
	e.Advance(5 * time.Second)

	_, _, err := e.k.CompleteTask(e.Ctx, otherAddr, taskID, testSecret, 5, t0)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, _, err = e.k.CompleteTask(e.Ctx, clientAddr, taskID, testSecret, 5, t0)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, _, err = e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 5, e.Ctx.BlockTime().Add(time.Second))
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	_, _, err = e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 5, t0.Add(-time.Second))
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	require.Equal(t, types.TaskStateActivated, e.task(t, taskID).State)
}

func TestCompleteTask_NotActivated(t *testing.T) {
	e := setupTest(t)
	taskID := e.awardTask(t, defaultPrice)

	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 5, e.Ctx.BlockTime())
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestInvalidateTask(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	// Timeout is t0 + 10 + 60*10 = t0 + 610.
	e.At(t0.Add(609 * time.Second))
	require.ErrorIs(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID), types.ErrDeadlineViolation)

	e.At(t0.Add(610 * time.Second))
	require.ErrorIs(t, e.k.InvalidateTask(e.Ctx, providerAddr, taskID), types.ErrUnauthorized)
	require.NoError(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID))

	task := e.task(t, taskID)
	require.Equal(t, types.TaskStateInvalidated, task.State)
	require.Equal(t, types.ReasonClientTimeout, task.CloseReason)
	require.Equal(t, types.PaymentStateRefunded, task.PaymentState)
	require.Equal(t, math.NewInt(clientFunds), e.Balance(clientAddr))
	require.Zero(t, e.performance(t, providerAddr).Downvotes)
	e.requireInvariants(t)
}

func TestInvalidateTask_SplitPolicy(t *testing.T) {
	e := setupTest(t)
	params := types.DefaultParams()
	params.InvalidationProviderShareBps = 2_500
	require.NoError(t, e.k.SetParams(e.Ctx, params))

	taskID, t0 := e.activeTask(t, defaultPrice, 10)
	e.At(t0.Add(610 * time.Second))
	require.NoError(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID))

	escrow := e.escrow(t, taskID)
	require.Equal(t, types.PaymentStateSplit, escrow.Status)
	require.Equal(t, math.NewInt(250), escrow.ProviderAmount)
	require.Equal(t, math.NewInt(750), escrow.ClientAmount)
	require.Equal(t, math.NewInt(250), e.Balance(providerAddr))
	require.Equal(t, math.NewInt(clientFunds-250), e.Balance(clientAddr))
	require.Equal(t, types.PaymentStateSplit, e.task(t, taskID).PaymentState)
	e.requireInvariants(t)
}

func TestTerminalTasksRejectEveryIntent(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)
	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 1, t0)
	require.NoError(t, err)

	e.Advance(time.Hour)
	_, err = e.k.ActivateTask(e.Ctx, providerAddr, taskID, 10)
	require.ErrorIs(t, err, types.ErrInvalidState)
	_, _, err = e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 1, t0)
	require.ErrorIs(t, err, types.ErrInvalidState)
	require.ErrorIs(t, e.k.InvalidateTask(e.Ctx, clientAddr, taskID), types.ErrInvalidState)

	applied, err := e.k.ProcessDeadlines(e.Ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
	require.Equal(t, types.TaskStateCompletedSuccessfully, e.task(t, taskID).State)
}

func TestReceiveResults(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)

	require.ErrorIs(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, resultsCIDv1), types.ErrInvalidState)

	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, testSecret, 1, t0)
	require.NoError(t, err)

	require.ErrorIs(t, e.k.ReceiveResults(e.Ctx, clientAddr, taskID, resultsCIDv1), types.ErrUnauthorized)
	require.ErrorIs(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, "not-a-cid"), types.ErrInvalidRequest)

	require.NoError(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, resultsCIDv1))
	require.Equal(t, resultsCIDv1, e.task(t, taskID).ResultsCID)

	// Same identifier again is a no-op.
	version := e.task(t, taskID).Version
	require.NoError(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, resultsCIDv1))
	require.Equal(t, version, e.task(t, taskID).Version)

	require.ErrorIs(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, resultsCIDv0), types.ErrResultsConflict)
}

func TestReceiveResults_FailedTask(t *testing.T) {
	e := setupTest(t)
	taskID, t0 := e.activeTask(t, defaultPrice, 10)
	_, _, err := e.k.CompleteTask(e.Ctx, providerAddr, taskID, "wrong", 1, t0)
	require.NoError(t, err)

	require.ErrorIs(t, e.k.ReceiveResults(e.Ctx, providerAddr, taskID, resultsCIDv0), types.ErrInvalidState)
}
