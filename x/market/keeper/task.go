package keeper

import (
	"strconv"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// GetTask retrieves a task by ID
func (k Keeper) GetTask(ctx sdk.Context, taskID uint64) (types.Task, error) {
	var task types.Task
	found, err := k.getJSON(ctx, TaskKey(taskID), &task)
	if err != nil {
		return types.Task{}, err
	}
	if !found {
		return types.Task{}, types.ErrTaskNotFound.Wrapf("task %d", taskID)
	}
	return task, nil
}

// SetTask stores a task, advancing its version
func (k Keeper) SetTask(ctx sdk.Context, task types.Task) error {
	task.Version++
	return k.setJSON(ctx, TaskKey(task.ID), task)
}

// IterateTasks iterates over all tasks in ID order
func (k Keeper) IterateTasks(ctx sdk.Context, cb func(task types.Task) (stop bool)) error {
	return iterateJSON(k.getStore(ctx), TaskKeyPrefix, cb)
}

// ActivateTask starts execution of a created task by its awarded provider
// and returns the activation time.
func (k Keeper) ActivateTask(ctx sdk.Context, provider sdk.AccAddress, taskID, duration uint64) (time.Time, error) {
	var activatedAt time.Time
	err := k.atomic(ctx, "activate_task", func(ctx sdk.Context) error {
		task, err := k.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.AwardedProvider != provider.String() {
			return types.ErrUnauthorized.Wrapf("%s is not the awarded provider of task %d", provider, taskID)
		}
		if task.State != types.TaskStateCreated {
			return types.ErrInvalidState.Wrapf("task %d is %s", taskID, task.State)
		}
		if duration == 0 {
			return types.ErrInvalidRequest.Wrap("duration must be positive")
		}

		now := ctx.BlockTime().UTC()
		if !now.Before(task.TaskDeadline) {
			return types.ErrDeadlineViolation.Wrapf("task %d deadline %s has passed", taskID, task.TaskDeadline.Format(time.RFC3339))
		}
		if remaining := uint64(task.TaskDeadline.Sub(now) / time.Second); duration > remaining {
			return types.ErrDeadlineViolation.Wrapf("duration %ds overruns task deadline %s", duration, task.TaskDeadline.Format(time.RFC3339))
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}

		task.Provider = provider.String()
		task.ActivationTime = &now
		task.Duration = duration
		task.State = types.TaskStateActivated
		if err := k.SetTask(ctx, task); err != nil {
			return err
		}
		k.setDeadline(ctx, deadlineKindTask, task.ID, task.TimeoutAt(params))

		k.emitEvent(ctx, types.EventTypeTaskActivated,
			idAttr(types.AttributeKeyTaskID, task.ID),
			sdk.NewAttribute(types.AttributeKeyClient, task.Client),
			sdk.NewAttribute(types.AttributeKeyProvider, task.Provider),
			timeAttr(types.AttributeKeyActivationTime, now),
			sdk.NewAttribute(types.AttributeKeyDuration, strconv.FormatUint(duration, 10)),
		)
		k.metrics.TaskTransitions.WithLabelValues(task.State.String()).Inc()
		activatedAt = now
		return nil
	})
	return activatedAt, err
}

// CompleteTask adjudicates a provider's completion. An on-time submission
// whose verification matches the client's commitment succeeds and releases
// escrow; a mismatch fails and refunds it. A submission later than the
// execution deadline plus grace invalidates the task regardless of the
// verification, which is reported through late rather than an error.
func (k Keeper) CompleteTask(
	ctx sdk.Context,
	provider sdk.AccAddress,
	taskID uint64,
	verification string,
	reportedDuration uint64,
	submittedTime time.Time,
) (state types.TaskState, late bool, err error) {
	err = k.atomic(ctx, "complete_task", func(ctx sdk.Context) error {
		state, late = types.TaskStateUnspecified, false
		task, err := k.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Provider != provider.String() && task.AwardedProvider != provider.String() {
			return types.ErrUnauthorized.Wrapf("%s is not the provider of task %d", provider, taskID)
		}
		if task.State != types.TaskStateActivated {
			return types.ErrInvalidState.Wrapf("task %d is %s", taskID, task.State)
		}

		now := ctx.BlockTime()
		if submittedTime.After(now) {
			return types.ErrInvalidRequest.Wrap("submitted time is in the future")
		}
		if submittedTime.Before(*task.ActivationTime) {
			return types.ErrInvalidRequest.Wrap("submitted time precedes activation")
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}

		submitted := submittedTime.UTC()
		task.Verification = verification
		task.ReportedDuration = reportedDuration
		task.SubmittedTime = &submitted

		if submitted.After(task.ExecutionDeadline().Add(params.CompletionGrace())) {
			late = true
			state = types.TaskStateInvalidated
			return k.invalidate(ctx, task, types.ReasonLateSubmission)
		}

		if types.MatchesVerification(task.ClientVerification, verification) {
			state = types.TaskStateCompletedSuccessfully
			escrow, err := k.releaseEscrow(ctx, task.ID)
			if err != nil {
				return err
			}
			if err := k.closeTask(ctx, task, state, escrow.Status, "", types.EventTypeTaskCompletedSuccessfully); err != nil {
				return err
			}
			return k.upvote(ctx, task.Provider, task.ID)
		}

		state = types.TaskStateCompletedUnsuccessfully
		escrow, err := k.refundEscrow(ctx, task.ID)
		if err != nil {
			return err
		}
		if err := k.closeTask(ctx, task, state, escrow.Status, "", types.EventTypeTaskCompletedUnsuccessfully); err != nil {
			return err
		}
		return k.downvote(ctx, task.Provider, task.ID)
	})
	if err != nil {
		return types.TaskStateUnspecified, false, err
	}
	return state, late, nil
}

// InvalidateTask lets the client reclaim escrow from an activated task once
// its timeout margin has elapsed without a completion.
func (k Keeper) InvalidateTask(ctx sdk.Context, client sdk.AccAddress, taskID uint64) error {
	return k.atomic(ctx, "invalidate_task", func(ctx sdk.Context) error {
		task, err := k.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Client != client.String() {
			return types.ErrUnauthorized.Wrapf("%s is not the client of task %d", client, taskID)
		}
		if task.State != types.TaskStateActivated {
			return types.ErrInvalidState.Wrapf("task %d is %s", taskID, task.State)
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if timeoutAt := task.TimeoutAt(params); ctx.BlockTime().Before(timeoutAt) {
			return types.ErrDeadlineViolation.Wrapf("task %d cannot be invalidated before %s", taskID, timeoutAt.Format(time.RFC3339))
		}

		return k.invalidate(ctx, task, types.ReasonClientTimeout)
	})
}

// ReceiveResults records the results content identifier of a successfully
// completed task. Repeating the same identifier is a no-op.
func (k Keeper) ReceiveResults(ctx sdk.Context, provider sdk.AccAddress, taskID uint64, resultsCID string) error {
	return k.atomic(ctx, "receive_results", func(ctx sdk.Context) error {
		task, err := k.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Provider != provider.String() {
			return types.ErrUnauthorized.Wrapf("%s is not the provider of task %d", provider, taskID)
		}
		if task.State != types.TaskStateCompletedSuccessfully {
			return types.ErrInvalidState.Wrapf("task %d is %s", taskID, task.State)
		}

		canonical, err := types.ParseResultsCID(resultsCID)
		if err != nil {
			return err
		}
		switch task.ResultsCID {
		case canonical:
			return nil
		case "":
		default:
			return types.ErrResultsConflict.Wrapf("task %d has %s", taskID, task.ResultsCID)
		}

		task.ResultsCID = canonical
		if err := k.SetTask(ctx, task); err != nil {
			return err
		}

		k.emitEvent(ctx, types.EventTypeTaskReceivedResults,
			idAttr(types.AttributeKeyTaskID, task.ID),
			sdk.NewAttribute(types.AttributeKeyClient, task.Client),
			sdk.NewAttribute(types.AttributeKeyProvider, task.Provider),
			sdk.NewAttribute(types.AttributeKeyResultsCID, canonical),
		)
		return nil
	})
}

// invalidate settles an activated task as Invalidated: escrow is refunded,
// or split when the invalidation provider share is non-zero. Reputation is
// left untouched.
func (k Keeper) invalidate(ctx sdk.Context, task types.Task, reason string) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}

	var escrow types.Escrow
	if params.InvalidationProviderShareBps > 0 {
		escrow, err = k.splitEscrow(ctx, task.ID, params.InvalidationProviderShareBps)
	} else {
		escrow, err = k.refundEscrow(ctx, task.ID)
	}
	if err != nil {
		return err
	}

	return k.closeTask(ctx, task, types.TaskStateInvalidated, escrow.Status, reason, types.EventTypeTaskInvalidated)
}

// cancelTask settles a task never activated before its deadline as
// Cancelled with a full refund.
func (k Keeper) cancelTask(ctx sdk.Context, task types.Task, reason string) error {
	escrow, err := k.refundEscrow(ctx, task.ID)
	if err != nil {
		return err
	}
	return k.closeTask(ctx, task, types.TaskStateCancelled, escrow.Status, reason, types.EventTypeTaskCancelled)
}

// closeTask moves a task into a terminal state after its escrow settled.
func (k Keeper) closeTask(
	ctx sdk.Context,
	task types.Task,
	state types.TaskState,
	payment types.PaymentState,
	reason, eventType string,
) error {
	if task.State.IsTerminal() {
		return types.ErrInvalidState.Wrapf("task %d is already %s", task.ID, task.State)
	}

	now := ctx.BlockTime().UTC()
	task.State = state
	task.PaymentState = payment
	task.ClosedAt = &now
	task.CloseReason = reason
	if err := k.SetTask(ctx, task); err != nil {
		return err
	}
	k.removeDeadline(ctx, deadlineKindTask, task.ID)

	attrs := []sdk.Attribute{
		idAttr(types.AttributeKeyTaskID, task.ID),
		sdk.NewAttribute(types.AttributeKeyClient, task.Client),
		sdk.NewAttribute(types.AttributeKeyProvider, task.AwardedProvider),
	}
	if reason != "" {
		attrs = append(attrs, sdk.NewAttribute(types.AttributeKeyReason, reason))
	}
	k.emitEvent(ctx, eventType, attrs...)

	k.metrics.TaskTransitions.WithLabelValues(state.String()).Inc()
	k.Logger(ctx).Info("task closed",
		"task_id", task.ID,
		"state", state.String(),
		"payment", payment.String(),
		"reason", reason,
	)
	return nil
}
