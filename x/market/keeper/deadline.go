package keeper

import (
	"encoding/binary"
	"strconv"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// setDeadline (re)schedules the forced transition of an entity.
func (k Keeper) setDeadline(ctx sdk.Context, kind byte, id uint64, due time.Time) {
	k.removeDeadline(ctx, kind, id)

	store := k.getStore(ctx)
	store.Set(DeadlineKey(due, kind, id), indexMarker)
	store.Set(DeadlineReverseKey(kind, id), sdk.Uint64ToBigEndian(uint64(due.Unix())))
}

// removeDeadline drops the entity's scheduled transition, if any, using the
// reverse index.
func (k Keeper) removeDeadline(ctx sdk.Context, kind byte, id uint64) {
	store := k.getStore(ctx)
	reverseKey := DeadlineReverseKey(kind, id)
	bz := store.Get(reverseKey)
	if bz == nil {
		return
	}
	due := time.Unix(int64(binary.BigEndian.Uint64(bz)), 0)
	store.Delete(DeadlineKey(due, kind, id))
	store.Delete(reverseKey)
}

type dueEntry struct {
	kind byte
	id   uint64
}

// dueEntries returns up to limit scheduled transitions due at or before now,
// earliest first.
func (k Keeper) dueEntries(ctx sdk.Context, now time.Time, limit uint32) []dueEntry {
	store := k.getStore(ctx)
	end := DeadlineKey(time.Unix(now.Unix()+1, 0), 0, 0)
	iterator := store.Iterator(DeadlinePrefix, end)
	defer iterator.Close()

	var entries []dueEntry
	for ; iterator.Valid() && uint32(len(entries)) < limit; iterator.Next() {
		_, kind, id, ok := parseDeadlineKey(iterator.Key())
		if !ok {
			continue
		}
		entries = append(entries, dueEntry{kind: kind, id: id})
	}
	return entries
}

// ProcessDeadlines forces every timeout transition that is due at the
// current block time: open auctions past their deadline are awarded to the
// selected bid or cancelled, created tasks past their task deadline are
// cancelled and refunded, and activated tasks past their timeout are
// invalidated. Each transition commits on its own, so a failure is logged
// and left for the next sweep without blocking the others. Re-running is a
// no-op. It returns the number of transitions applied.
func (k Keeper) ProcessDeadlines(ctx sdk.Context) (int, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}

	now := ctx.BlockTime()
	handler := newSweepErrorHandler(ctx, k.metrics)
	applied := 0

	for _, entry := range k.dueEntries(ctx, now, params.MaxDeadlineSweep) {
		var (
			changed   bool
			operation string
			severity  = SeverityHigh
		)
		switch entry.kind {
		case deadlineKindAuction:
			operation = "expire_auction"
			severity = SeverityMedium
			err = k.atomic(ctx, operation, func(ctx sdk.Context) error {
				changed, err = k.expireAuction(ctx, entry.id, now)
				return err
			})
		case deadlineKindTask:
			operation = "expire_task"
			err = k.atomic(ctx, operation, func(ctx sdk.Context) error {
				changed, err = k.expireTask(ctx, entry.id, now)
				return err
			})
		default:
			continue
		}

		if handler.WrapError(operation+"/"+strconv.FormatUint(entry.id, 10), severity, err) {
			continue
		}
		if changed {
			applied++
			k.metrics.DeadlineTransitions.WithLabelValues(operation).Inc()
		}
	}

	if applied > 0 {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDeadlineSweep,
				sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(applied)),
				timeAttr(types.AttributeKeyTimestamp, now),
			),
		)
	}

	return applied, nil
}

// expireAuction closes an open auction whose deadline has passed. A
// selected bid is awarded when the client can still fund it.
func (k Keeper) expireAuction(ctx sdk.Context, auctionID uint64, now time.Time) (bool, error) {
	auction, err := k.GetAuction(ctx, auctionID)
	if err != nil {
		return false, err
	}
	if auction.State != types.AuctionStateOpen {
		k.removeDeadline(ctx, deadlineKindAuction, auctionID)
		return false, nil
	}
	if !now.After(auction.AuctionDeadline) {
		return false, nil
	}

	if auction.SelectedProvider == "" {
		return true, k.closeAuction(ctx, auction, types.ReasonExpired)
	}

	provider, err := sdk.AccAddressFromBech32(auction.SelectedProvider)
	if err != nil {
		return false, err
	}
	bid, err := k.GetBid(ctx, auctionID, provider)
	if err != nil {
		return false, err
	}
	funded, err := k.canFund(ctx, auction.Client, bid)
	if err != nil {
		return false, err
	}
	if !funded {
		return true, k.closeAuction(ctx, auction, types.ReasonUnfunded)
	}
	_, err = k.award(ctx, auction, bid)
	return err == nil, err
}

// expireTask cancels a created task past its task deadline, or invalidates
// an activated task past its timeout.
func (k Keeper) expireTask(ctx sdk.Context, taskID uint64, now time.Time) (bool, error) {
	task, err := k.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}

	switch task.State {
	case types.TaskStateCreated:
		if !now.After(task.TaskDeadline) {
			return false, nil
		}
		return true, k.cancelTask(ctx, task, types.ReasonNotActivated)

	case types.TaskStateActivated:
		params, err := k.GetParams(ctx)
		if err != nil {
			return false, err
		}
		if !now.After(task.TimeoutAt(params)) {
			return false, nil
		}
		return true, k.invalidate(ctx, task, types.ReasonTimeout)

	default:
		k.removeDeadline(ctx, deadlineKindTask, taskID)
		return false, nil
	}
}

func (k Keeper) canFund(ctx sdk.Context, client string, bid types.Bid) (bool, error) {
	addr, err := sdk.AccAddressFromBech32(client)
	if err != nil {
		return false, err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return false, err
	}
	return k.bankKeeper.SpendableCoins(ctx, addr).AmountOf(params.Denom).GTE(bid.Price), nil
}
