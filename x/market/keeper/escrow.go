package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// GetEscrow retrieves the escrow entry for a task
func (k Keeper) GetEscrow(ctx sdk.Context, taskID uint64) (types.Escrow, error) {
	var escrow types.Escrow
	found, err := k.getJSON(ctx, EscrowKey(taskID), &escrow)
	if err != nil {
		return types.Escrow{}, err
	}
	if !found {
		return types.Escrow{}, types.ErrEscrowNotFound.Wrapf("task %d", taskID)
	}
	return escrow, nil
}

// SetEscrow stores the escrow entry, advancing its version
func (k Keeper) SetEscrow(ctx sdk.Context, escrow types.Escrow) error {
	escrow.Version++
	return k.setJSON(ctx, EscrowKey(escrow.TaskID), escrow)
}

// lockEscrow moves the task price from the client into the module account.
// Locking an already locked escrow of the same amount is a no-op.
func (k Keeper) lockEscrow(ctx sdk.Context, task types.Task) (types.Escrow, error) {
	existing, err := k.GetEscrow(ctx, task.ID)
	switch {
	case err == nil && existing.Status == types.PaymentStateLocked && existing.Amount.Equal(task.Price):
		return existing, nil
	case err == nil:
		return types.Escrow{}, types.ErrAlreadySettled.Wrapf("escrow for task %d is %s", task.ID, existing.Status)
	case !types.IsNotFound(err):
		return types.Escrow{}, err
	}

	if task.Price.IsNil() || !task.Price.IsPositive() {
		return types.Escrow{}, types.ErrInvalidRequest.Wrap("escrow amount must be positive")
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Escrow{}, err
	}

	client, err := sdk.AccAddressFromBech32(task.Client)
	if err != nil {
		return types.Escrow{}, types.ErrInvalidRequest.Wrapf("invalid client address: %v", err)
	}

	spendable := k.bankKeeper.SpendableCoins(ctx, client).AmountOf(params.Denom)
	if spendable.LT(task.Price) {
		return types.Escrow{}, types.ErrInsufficientFunds.Wrapf("need %s%s, spendable %s%s", task.Price, params.Denom, spendable, params.Denom)
	}

	coins := sdk.NewCoins(sdk.NewCoin(params.Denom, task.Price))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, client, types.ModuleName, coins); err != nil {
		return types.Escrow{}, types.ErrEscrowTransfer.Wrapf("lock: %v", err)
	}

	escrow := types.Escrow{
		TaskID:         task.ID,
		Client:         task.Client,
		Provider:       task.AwardedProvider,
		Amount:         task.Price,
		Status:         types.PaymentStateLocked,
		ProviderAmount: math.ZeroInt(),
		ClientAmount:   math.ZeroInt(),
		LockedAt:       ctx.BlockTime().UTC(),
	}
	if err := k.SetEscrow(ctx, escrow); err != nil {
		return types.Escrow{}, err
	}

	k.emitEvent(ctx, types.EventTypeEscrowLocked,
		idAttr(types.AttributeKeyTaskID, task.ID),
		sdk.NewAttribute(types.AttributeKeyClient, task.Client),
		sdk.NewAttribute(types.AttributeKeyProvider, task.AwardedProvider),
		sdk.NewAttribute(types.AttributeKeyAmount, coins.String()),
	)
	k.metrics.EscrowLocked.WithLabelValues(params.Denom).Add(amountFloat(task.Price))

	return k.GetEscrow(ctx, task.ID)
}

// releaseEscrow pays the whole escrow to the provider.
func (k Keeper) releaseEscrow(ctx sdk.Context, taskID uint64) (types.Escrow, error) {
	return k.settleEscrow(ctx, taskID, types.BasisPoints)
}

// refundEscrow returns the whole escrow to the client.
func (k Keeper) refundEscrow(ctx sdk.Context, taskID uint64) (types.Escrow, error) {
	return k.settleEscrow(ctx, taskID, 0)
}

// splitEscrow pays providerBps basis points of the escrow to the provider and
// the remainder to the client.
func (k Keeper) splitEscrow(ctx sdk.Context, taskID uint64, providerBps uint32) (types.Escrow, error) {
	if providerBps > types.BasisPoints {
		return types.Escrow{}, types.ErrInvalidRequest.Wrapf("provider share %d exceeds %d bps", providerBps, types.BasisPoints)
	}
	return k.settleEscrow(ctx, taskID, providerBps)
}

// settleEscrow is the single exit path for escrowed funds. It follows the
// check-effects-interactions order: the entry is marked settled before any
// coins move, so a second settlement always fails with ErrAlreadySettled.
func (k Keeper) settleEscrow(ctx sdk.Context, taskID uint64, providerBps uint32) (types.Escrow, error) {
	// 1. CHECK
	escrow, err := k.GetEscrow(ctx, taskID)
	if err != nil {
		return types.Escrow{}, err
	}
	if escrow.Status != types.PaymentStateLocked {
		return types.Escrow{}, types.ErrAlreadySettled.Wrapf("escrow for task %d is %s", taskID, escrow.Status)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Escrow{}, err
	}

	providerAmount := escrow.Amount.MulRaw(int64(providerBps)).QuoRaw(types.BasisPoints)
	clientAmount := escrow.Amount.Sub(providerAmount)

	status := types.PaymentStateSplit
	eventType := types.EventTypeEscrowSplit
	switch {
	case clientAmount.IsZero():
		status = types.PaymentStateReleased
		eventType = types.EventTypeEscrowReleased
	case providerAmount.IsZero():
		status = types.PaymentStateRefunded
		eventType = types.EventTypeEscrowRefunded
	}

	// 2. EFFECTS
	now := ctx.BlockTime().UTC()
	escrow.Status = status
	escrow.ProviderAmount = providerAmount
	escrow.ClientAmount = clientAmount
	escrow.SettledAt = &now
	if err := k.SetEscrow(ctx, escrow); err != nil {
		return types.Escrow{}, err
	}

	// 3. INTERACTIONS
	if err := k.payOut(ctx, escrow.Provider, params.Denom, providerAmount); err != nil {
		return types.Escrow{}, err
	}
	if err := k.payOut(ctx, escrow.Client, params.Denom, clientAmount); err != nil {
		return types.Escrow{}, err
	}

	k.emitEvent(ctx, eventType,
		idAttr(types.AttributeKeyTaskID, taskID),
		sdk.NewAttribute(types.AttributeKeyClient, escrow.Client),
		sdk.NewAttribute(types.AttributeKeyProvider, escrow.Provider),
		sdk.NewAttribute(types.AttributeKeyAmount, escrow.Amount.String()),
		sdk.NewAttribute(types.AttributeKeyProviderAmount, providerAmount.String()),
		sdk.NewAttribute(types.AttributeKeyClientAmount, clientAmount.String()),
	)
	k.metrics.EscrowSettled.WithLabelValues(status.String()).Inc()

	return k.GetEscrow(ctx, taskID)
}

func (k Keeper) payOut(ctx sdk.Context, recipient, denom string, amount math.Int) error {
	if amount.IsZero() {
		return nil
	}
	addr, err := sdk.AccAddressFromBech32(recipient)
	if err != nil {
		return types.ErrEscrowTransfer.Wrapf("invalid recipient %q: %v", recipient, err)
	}
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, addr, coins); err != nil {
		return types.ErrEscrowTransfer.Wrapf("pay %s to %s: %v", coins, recipient, err)
	}
	return nil
}

// IterateEscrows iterates over all escrow entries
func (k Keeper) IterateEscrows(ctx sdk.Context, cb func(escrow types.Escrow) (stop bool)) error {
	return iterateJSON(k.getStore(ctx), EscrowKeyPrefix, cb)
}
