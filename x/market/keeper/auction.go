package keeper

import (
	"time"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// GetAuction retrieves an auction by ID
func (k Keeper) GetAuction(ctx sdk.Context, auctionID uint64) (types.Auction, error) {
	var auction types.Auction
	found, err := k.getJSON(ctx, AuctionKey(auctionID), &auction)
	if err != nil {
		return types.Auction{}, err
	}
	if !found {
		return types.Auction{}, types.ErrAuctionNotFound.Wrapf("auction %d", auctionID)
	}
	return auction, nil
}

// SetAuction stores an auction, advancing its version and keeping the
// active index in step with its state.
func (k Keeper) SetAuction(ctx sdk.Context, auction types.Auction) error {
	auction.Version++
	if err := k.setJSON(ctx, AuctionKey(auction.ID), auction); err != nil {
		return err
	}

	store := k.getStore(ctx)
	if auction.State == types.AuctionStateOpen {
		store.Set(ActiveAuctionKey(auction.ID), indexMarker)
	} else {
		store.Delete(ActiveAuctionKey(auction.ID))
	}
	return nil
}

// IterateAuctions iterates over all auctions in ID order
func (k Keeper) IterateAuctions(ctx sdk.Context, cb func(auction types.Auction) (stop bool)) error {
	return iterateJSON(k.getStore(ctx), AuctionKeyPrefix, cb)
}

// GetActiveAuctions returns the open auctions in creation order.
func (k Keeper) GetActiveAuctions(ctx sdk.Context) ([]types.Auction, error) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, ActiveAuctionPrefix)
	defer iterator.Close()

	var ids []uint64
	for ; iterator.Valid(); iterator.Next() {
		ids = append(ids, sdk.BigEndianToUint64(iterator.Key()[len(ActiveAuctionPrefix):]))
	}

	auctions := make([]types.Auction, 0, len(ids))
	for _, id := range ids {
		auction, err := k.GetAuction(ctx, id)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	return auctions, nil
}

// CreateAuction opens an auction for the client's task and returns its ID.
func (k Keeper) CreateAuction(
	ctx sdk.Context,
	client sdk.AccAddress,
	auctionDeadline, taskDeadline time.Time,
	clientVerification, code string,
) (uint64, error) {
	var auctionID uint64
	err := k.atomic(ctx, "create_auction", func(ctx sdk.Context) error {
		now := ctx.BlockTime()
		if !auctionDeadline.Before(taskDeadline) {
			return types.ErrInvalidRequest.Wrap("auction deadline must be before task deadline")
		}
		if !auctionDeadline.After(now) {
			return types.ErrDeadlineViolation.Wrapf("auction deadline %s is not after %s",
				auctionDeadline.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
		}
		if _, err := types.ParseVerificationCommitment(clientVerification); err != nil {
			return err
		}
		if err := types.ValidateCode(code); err != nil {
			return err
		}

		auction := types.Auction{
			ID:                 k.nextSequence(ctx, NextAuctionIDKey),
			Client:             client.String(),
			AuctionDeadline:    auctionDeadline.UTC(),
			TaskDeadline:       taskDeadline.UTC(),
			ClientVerification: clientVerification,
			Code:               code,
			State:              types.AuctionStateOpen,
			CreatedAt:          now.UTC(),
		}
		if err := k.SetAuction(ctx, auction); err != nil {
			return err
		}
		k.setDeadline(ctx, deadlineKindAuction, auction.ID, auction.AuctionDeadline)

		k.emitEvent(ctx, types.EventTypeAuctionCreated,
			idAttr(types.AttributeKeyAuctionID, auction.ID),
			sdk.NewAttribute(types.AttributeKeyClient, auction.Client),
			timeAttr(types.AttributeKeyAuctionDeadline, auction.AuctionDeadline),
			timeAttr(types.AttributeKeyTaskDeadline, auction.TaskDeadline),
			sdk.NewAttribute(types.AttributeKeyCode, auction.Code),
		)
		auctionID = auction.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	k.metrics.AuctionsCreated.Inc()
	return auctionID, nil
}

// CancelAuction withdraws an open auction before its deadline.
func (k Keeper) CancelAuction(ctx sdk.Context, client sdk.AccAddress, auctionID uint64) error {
	return k.atomic(ctx, "cancel_auction", func(ctx sdk.Context) error {
		auction, err := k.openAuctionForClient(ctx, client, auctionID)
		if err != nil {
			return err
		}
		return k.closeAuction(ctx, auction, types.ReasonClientCancelled)
	})
}

// PlaceBid records or replaces the provider's bid on an open auction.
func (k Keeper) PlaceBid(ctx sdk.Context, provider sdk.AccAddress, auctionID uint64, price math.Int) error {
	return k.atomic(ctx, "place_bid", func(ctx sdk.Context) error {
		auction, err := k.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Client == provider.String() {
			return types.ErrUnauthorized.Wrap("client cannot bid on its own auction")
		}
		if err := checkAuctionOpen(ctx, auction); err != nil {
			return err
		}
		if price.IsNil() || !price.IsPositive() {
			return types.ErrInvalidRequest.Wrap("price must be positive")
		}

		if _, err := k.GetBid(ctx, auctionID, provider); types.IsNotFound(err) {
			params, err := k.GetParams(ctx)
			if err != nil {
				return err
			}
			if count := len(k.GetBids(ctx, auctionID)); count >= int(params.MaxBidsPerAuction) {
				return types.ErrInvalidRequest.Wrapf("auction %d already has %d bids", auctionID, count)
			}
		} else if err != nil {
			return err
		}

		bid := types.Bid{
			AuctionID: auctionID,
			Provider:  provider.String(),
			Price:     price,
			PlacedAt:  ctx.BlockTime().UTC(),
		}
		if err := k.setJSON(ctx, BidKey(auctionID, provider), bid); err != nil {
			return err
		}
		// A re-bid withdraws the client's selection made at the old price.
		if auction.SelectedProvider == bid.Provider {
			auction.SelectedProvider = ""
			if err := k.SetAuction(ctx, auction); err != nil {
				return err
			}
		}

		k.emitEvent(ctx, types.EventTypeBidPlaced,
			idAttr(types.AttributeKeyAuctionID, auctionID),
			sdk.NewAttribute(types.AttributeKeyProvider, bid.Provider),
			sdk.NewAttribute(types.AttributeKeyPrice, price.String()),
		)
		k.metrics.BidsPlaced.Inc()
		return nil
	})
}

// SelectBid marks a bid to be awarded when the auction deadline elapses.
func (k Keeper) SelectBid(ctx sdk.Context, client sdk.AccAddress, auctionID uint64, provider sdk.AccAddress) error {
	return k.atomic(ctx, "select_bid", func(ctx sdk.Context) error {
		auction, err := k.openAuctionForClient(ctx, client, auctionID)
		if err != nil {
			return err
		}
		if _, err := k.GetBid(ctx, auctionID, provider); err != nil {
			return err
		}

		auction.SelectedProvider = provider.String()
		if err := k.SetAuction(ctx, auction); err != nil {
			return err
		}

		k.emitEvent(ctx, types.EventTypeBidSelected,
			idAttr(types.AttributeKeyAuctionID, auctionID),
			sdk.NewAttribute(types.AttributeKeyClient, auction.Client),
			sdk.NewAttribute(types.AttributeKeyProvider, auction.SelectedProvider),
		)
		return nil
	})
}

// AcceptBid awards the auction to the provider's bid. The auction closes,
// the task is created and escrow is locked in one transition.
func (k Keeper) AcceptBid(ctx sdk.Context, client sdk.AccAddress, auctionID uint64, provider sdk.AccAddress) (uint64, error) {
	var taskID uint64
	err := k.atomic(ctx, "accept_bid", func(ctx sdk.Context) error {
		auction, err := k.openAuctionForClient(ctx, client, auctionID)
		if err != nil {
			return err
		}
		bid, err := k.GetBid(ctx, auctionID, provider)
		if err != nil {
			return err
		}
		task, err := k.award(ctx, auction, bid)
		if err != nil {
			return err
		}
		taskID = task.ID
		return nil
	})
	return taskID, err
}

// GetBid retrieves a provider's bid on an auction
func (k Keeper) GetBid(ctx sdk.Context, auctionID uint64, provider sdk.AccAddress) (types.Bid, error) {
	var bid types.Bid
	found, err := k.getJSON(ctx, BidKey(auctionID, provider), &bid)
	if err != nil {
		return types.Bid{}, err
	}
	if !found {
		return types.Bid{}, types.ErrBidNotFound.Wrapf("auction %d, provider %s", auctionID, provider)
	}
	return bid, nil
}

// GetBids returns all bids on an auction ordered by provider address.
// Undecodable entries are skipped.
func (k Keeper) GetBids(ctx sdk.Context, auctionID uint64) []types.Bid {
	var bids []types.Bid
	_ = iterateJSON(k.getStore(ctx), BidsPrefix(auctionID), func(bid types.Bid) bool {
		bids = append(bids, bid)
		return false
	})
	return bids
}

// IterateBids iterates over every bid of every auction
func (k Keeper) IterateBids(ctx sdk.Context, cb func(bid types.Bid) (stop bool)) error {
	return iterateJSON(k.getStore(ctx), BidKeyPrefix, cb)
}

// openAuctionForClient loads an auction the client may still act on.
func (k Keeper) openAuctionForClient(ctx sdk.Context, client sdk.AccAddress, auctionID uint64) (types.Auction, error) {
	auction, err := k.GetAuction(ctx, auctionID)
	if err != nil {
		return types.Auction{}, err
	}
	if auction.Client != client.String() {
		return types.Auction{}, types.ErrUnauthorized.Wrapf("%s is not the client of auction %d", client, auctionID)
	}
	if err := checkAuctionOpen(ctx, auction); err != nil {
		return types.Auction{}, err
	}
	return auction, nil
}

func checkAuctionOpen(ctx sdk.Context, auction types.Auction) error {
	if auction.State != types.AuctionStateOpen {
		return types.ErrInvalidState.Wrapf("auction %d is %s", auction.ID, auction.State)
	}
	if !ctx.BlockTime().Before(auction.AuctionDeadline) {
		return types.ErrDeadlineViolation.Wrapf("auction %d closed for bidding at %s",
			auction.ID, auction.AuctionDeadline.Format(time.RFC3339))
	}
	return nil
}

// closeAuction moves an open auction to Cancelled.
func (k Keeper) closeAuction(ctx sdk.Context, auction types.Auction, reason string) error {
	now := ctx.BlockTime().UTC()
	auction.State = types.AuctionStateCancelled
	auction.ClosedAt = &now
	auction.CloseReason = reason
	if err := k.SetAuction(ctx, auction); err != nil {
		return err
	}
	k.removeDeadline(ctx, deadlineKindAuction, auction.ID)

	k.emitEvent(ctx, types.EventTypeAuctionCancelled,
		idAttr(types.AttributeKeyAuctionID, auction.ID),
		sdk.NewAttribute(types.AttributeKeyClient, auction.Client),
		sdk.NewAttribute(types.AttributeKeyReason, reason),
	)
	k.metrics.AuctionsClosed.WithLabelValues(auction.State.String(), reason).Inc()
	k.Logger(ctx).Info("auction cancelled", "auction_id", auction.ID, "reason", reason)
	return nil
}

// award closes the auction in favour of bid and creates the task with its
// escrow. It must run inside an atomic transition.
func (k Keeper) award(ctx sdk.Context, auction types.Auction, bid types.Bid) (types.Task, error) {
	now := ctx.BlockTime().UTC()

	auction.State = types.AuctionStateAwarded
	auction.WinningProvider = bid.Provider
	auction.ClosedAt = &now
	if err := k.SetAuction(ctx, auction); err != nil {
		return types.Task{}, err
	}
	k.removeDeadline(ctx, deadlineKindAuction, auction.ID)

	k.emitEvent(ctx, types.EventTypeAuctionAwarded,
		idAttr(types.AttributeKeyAuctionID, auction.ID),
		sdk.NewAttribute(types.AttributeKeyClient, auction.Client),
		sdk.NewAttribute(types.AttributeKeyProvider, bid.Provider),
		sdk.NewAttribute(types.AttributeKeyPrice, bid.Price.String()),
	)

	task := types.Task{
		ID:                 auction.ID,
		Client:             auction.Client,
		AwardedProvider:    bid.Provider,
		Code:               auction.Code,
		ClientVerification: auction.ClientVerification,
		TaskDeadline:       auction.TaskDeadline,
		Price:              bid.Price,
		State:              types.TaskStateCreated,
		PaymentState:       types.PaymentStateLocked,
		CreatedAt:          now,
	}
	if _, err := k.lockEscrow(ctx, task); err != nil {
		return types.Task{}, err
	}
	if err := k.SetTask(ctx, task); err != nil {
		return types.Task{}, err
	}
	k.setDeadline(ctx, deadlineKindTask, task.ID, task.TaskDeadline)

	k.emitEvent(ctx, types.EventTypeTaskCreated,
		idAttr(types.AttributeKeyTaskID, task.ID),
		sdk.NewAttribute(types.AttributeKeyClient, task.Client),
		sdk.NewAttribute(types.AttributeKeyProvider, task.AwardedProvider),
		sdk.NewAttribute(types.AttributeKeyPrice, task.Price.String()),
		timeAttr(types.AttributeKeyTaskDeadline, task.TaskDeadline),
	)
	k.metrics.AuctionsClosed.WithLabelValues(auction.State.String(), "").Inc()
	k.metrics.TaskTransitions.WithLabelValues(task.State.String()).Inc()
	k.Logger(ctx).Info("auction awarded", "auction_id", auction.ID, "provider", bid.Provider, "price", bid.Price.String())

	return task, nil
}
