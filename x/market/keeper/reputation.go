package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// GetPerformance returns a provider's reputation record. Providers without
// a record have zero votes.
func (k Keeper) GetPerformance(ctx sdk.Context, provider sdk.AccAddress) (types.Performance, error) {
	perf := types.Performance{Provider: provider.String()}
	if _, err := k.getJSON(ctx, PerformanceKey(provider), &perf); err != nil {
		return types.Performance{}, err
	}
	return perf, nil
}

// SetPerformance stores a reputation record, advancing its version
func (k Keeper) SetPerformance(ctx sdk.Context, perf types.Performance) error {
	addr, err := sdk.AccAddressFromBech32(perf.Provider)
	if err != nil {
		return types.ErrInvalidRequest.Wrapf("invalid provider address: %v", err)
	}
	perf.Version++
	return k.setJSON(ctx, PerformanceKey(addr), perf)
}

// upvote credits the provider with a successful task.
func (k Keeper) upvote(ctx sdk.Context, provider string, taskID uint64) error {
	return k.vote(ctx, provider, taskID, true)
}

// downvote charges the provider with a failed verification.
func (k Keeper) downvote(ctx sdk.Context, provider string, taskID uint64) error {
	return k.vote(ctx, provider, taskID, false)
}

func (k Keeper) vote(ctx sdk.Context, provider string, taskID uint64, up bool) error {
	addr, err := sdk.AccAddressFromBech32(provider)
	if err != nil {
		return types.ErrInvalidRequest.Wrapf("invalid provider address: %v", err)
	}
	perf, err := k.GetPerformance(ctx, addr)
	if err != nil {
		return err
	}

	eventType := types.EventTypeProviderDownvoted
	if up {
		perf.Upvotes++
		eventType = types.EventTypeProviderUpvoted
	} else {
		perf.Downvotes++
	}
	if err := k.SetPerformance(ctx, perf); err != nil {
		return err
	}

	k.emitEvent(ctx, eventType,
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		idAttr(types.AttributeKeyTaskID, taskID),
		sdk.NewAttribute(types.AttributeKeyUpvotes, strconv.FormatUint(perf.Upvotes, 10)),
		sdk.NewAttribute(types.AttributeKeyDownvotes, strconv.FormatUint(perf.Downvotes, 10)),
	)
	k.metrics.ReputationVotes.WithLabelValues(strconv.FormatBool(up)).Inc()
	return nil
}

// IteratePerformances iterates over all reputation records
func (k Keeper) IteratePerformances(ctx sdk.Context, cb func(perf types.Performance) (stop bool)) error {
	return iterateJSON(k.getStore(ctx), PerformanceKeyPrefix, cb)
}
