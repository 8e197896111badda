package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// InitGenesis initializes the market module's state from a genesis state.
// Records are stored as exported, versions included, and the active and
// deadline indexes are rebuilt from their states.
func (k Keeper) InitGenesis(ctx sdk.Context, data types.GenesisState) error {
	if err := k.SetParams(ctx, data.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}

	store := k.getStore(ctx)
	var maxAuctionID uint64

	// Initialize auctions
	for _, auction := range data.Auctions {
		if err := k.setJSON(ctx, AuctionKey(auction.ID), auction); err != nil {
			return fmt.Errorf("failed to initialize auction %d: %w", auction.ID, err)
		}
		if auction.ID > maxAuctionID {
			maxAuctionID = auction.ID
		}
		if auction.State == types.AuctionStateOpen {
			store.Set(ActiveAuctionKey(auction.ID), indexMarker)
			k.setDeadline(ctx, deadlineKindAuction, auction.ID, auction.AuctionDeadline)
		}
	}

	// Initialize bids
	for _, bid := range data.Bids {
		provider, err := sdk.AccAddressFromBech32(bid.Provider)
		if err != nil {
			return fmt.Errorf("invalid bid provider %s: %w", bid.Provider, err)
		}
		if err := k.setJSON(ctx, BidKey(bid.AuctionID, provider), bid); err != nil {
			return fmt.Errorf("failed to initialize bid on auction %d: %w", bid.AuctionID, err)
		}
	}

	// Initialize escrows
	for _, escrow := range data.Escrows {
		if err := k.setJSON(ctx, EscrowKey(escrow.TaskID), escrow); err != nil {
			return fmt.Errorf("failed to initialize escrow %d: %w", escrow.TaskID, err)
		}
	}

	// Initialize tasks and restore their deadline indexes
	for _, task := range data.Tasks {
		if err := k.setJSON(ctx, TaskKey(task.ID), task); err != nil {
			return fmt.Errorf("failed to initialize task %d: %w", task.ID, err)
		}
		if task.ID > maxAuctionID {
			maxAuctionID = task.ID
		}
		switch task.State {
		case types.TaskStateCreated:
			k.setDeadline(ctx, deadlineKindTask, task.ID, task.TaskDeadline)
		case types.TaskStateActivated:
			k.setDeadline(ctx, deadlineKindTask, task.ID, task.TimeoutAt(data.Params))
		}
	}

	// Initialize reputation records
	for _, perf := range data.Performances {
		provider, err := sdk.AccAddressFromBech32(perf.Provider)
		if err != nil {
			return fmt.Errorf("invalid performance provider %s: %w", perf.Provider, err)
		}
		if err := k.setJSON(ctx, PerformanceKey(provider), perf); err != nil {
			return fmt.Errorf("failed to initialize performance %s: %w", perf.Provider, err)
		}
	}

	nextAuctionID := data.NextAuctionID
	if nextAuctionID == 0 || nextAuctionID <= maxAuctionID {
		nextAuctionID = maxAuctionID + 1
	}
	k.setCounter(ctx, NextAuctionIDKey, nextAuctionID)

	nextEventID := data.NextEventID
	if nextEventID == 0 {
		nextEventID = 1
	}
	k.setCounter(ctx, NextEventIDKey, nextEventID)

	return nil
}

// ExportGenesis returns the market module's exported genesis state
func (k Keeper) ExportGenesis(ctx sdk.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	gs := types.DefaultGenesis()
	gs.Params = params
	gs.NextAuctionID = k.getCounter(ctx, NextAuctionIDKey)
	gs.NextEventID = k.getCounter(ctx, NextEventIDKey)

	if err := k.IterateAuctions(ctx, func(auction types.Auction) bool {
		gs.Auctions = append(gs.Auctions, auction)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export auctions: %w", err)
	}

	if err := k.IterateBids(ctx, func(bid types.Bid) bool {
		gs.Bids = append(gs.Bids, bid)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export bids: %w", err)
	}

	if err := k.IterateTasks(ctx, func(task types.Task) bool {
		gs.Tasks = append(gs.Tasks, task)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export tasks: %w", err)
	}

	if err := k.IterateEscrows(ctx, func(escrow types.Escrow) bool {
		gs.Escrows = append(gs.Escrows, escrow)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export escrows: %w", err)
	}

	if err := k.IteratePerformances(ctx, func(perf types.Performance) bool {
		gs.Performances = append(gs.Performances, perf)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export performances: %w", err)
	}

	return gs, nil
}
