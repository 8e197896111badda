package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// RegisterInvariants registers all market module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "escrow-balance",
		EscrowBalanceInvariant(k))
	ir.RegisterRoute(types.ModuleName, "escrow-settlement",
		EscrowSettlementInvariant(k))
	ir.RegisterRoute(types.ModuleName, "active-auctions",
		ActiveAuctionsInvariant(k))
}

// AllInvariants runs all invariants of the market module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := EscrowBalanceInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		res, stop = EscrowSettlementInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return ActiveAuctionsInvariant(k)(ctx)
	}
}

// EscrowBalanceInvariant checks that the module account holds exactly the
// sum of all locked escrows.
func EscrowBalanceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "escrow-balance",
				fmt.Sprintf("error reading params: %v", err)), true
		}

		totalLocked := math.ZeroInt()
		err = k.IterateEscrows(ctx, func(escrow types.Escrow) bool {
			if escrow.Status == types.PaymentStateLocked {
				totalLocked = totalLocked.Add(escrow.Amount)
			}
			return false
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "escrow-balance",
				fmt.Sprintf("error iterating escrows: %v", err)), true
		}

		moduleAddr := k.accountKeeper.GetModuleAddress(types.ModuleName)
		moduleBalance := k.bankKeeper.GetBalance(ctx, moduleAddr, params.Denom).Amount

		if !totalLocked.Equal(moduleBalance) {
			return sdk.FormatInvariant(types.ModuleName, "escrow-balance",
				fmt.Sprintf(
					"total locked escrow does not match module balance\n"+
						"\ttotal locked: %s%s\n"+
						"\tmodule balance: %s%s",
					totalLocked, params.Denom, moduleBalance, params.Denom,
				)), true
		}

		return sdk.FormatInvariant(types.ModuleName, "escrow-balance", ""), false
	}
}

// EscrowSettlementInvariant checks that every task has exactly one escrow,
// that open tasks are locked, that closed tasks are settled exactly once,
// and that settled amounts add up to the escrowed amount.
func EscrowSettlementInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			broken bool
			msg    string
		)

		err := k.IterateTasks(ctx, func(task types.Task) bool {
			escrow, err := k.GetEscrow(ctx, task.ID)
			if err != nil {
				broken = true
				msg += fmt.Sprintf("task %d: %v\n", task.ID, err)
				return false
			}
			if escrow.Status != task.PaymentState {
				broken = true
				msg += fmt.Sprintf("task %d: payment state %s but escrow %s\n", task.ID, task.PaymentState, escrow.Status)
			}
			if task.State.IsTerminal() != escrow.Status.IsSettled() {
				broken = true
				msg += fmt.Sprintf("task %d: state %s with escrow %s\n", task.ID, task.State, escrow.Status)
			}
			if escrow.Status.IsSettled() && !escrow.ProviderAmount.Add(escrow.ClientAmount).Equal(escrow.Amount) {
				broken = true
				msg += fmt.Sprintf("task %d: settled %s+%s of %s\n", task.ID, escrow.ProviderAmount, escrow.ClientAmount, escrow.Amount)
			}
			return false
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "escrow-settlement",
				fmt.Sprintf("error iterating tasks: %v", err)), true
		}

		return sdk.FormatInvariant(types.ModuleName, "escrow-settlement", msg), broken
	}
}

// ActiveAuctionsInvariant checks that the active index holds exactly the
// open auctions.
func ActiveAuctionsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			broken bool
			msg    string
			open   int
		)

		store := k.getStore(ctx)
		err := k.IterateAuctions(ctx, func(auction types.Auction) bool {
			indexed := store.Has(ActiveAuctionKey(auction.ID))
			isOpen := auction.State == types.AuctionStateOpen
			if isOpen {
				open++
			}
			if indexed != isOpen {
				broken = true
				msg += fmt.Sprintf("auction %d: state %s, indexed %t\n", auction.ID, auction.State, indexed)
			}
			return false
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "active-auctions",
				fmt.Sprintf("error iterating auctions: %v", err)), true
		}

		indexed := 0
		iterator := storetypes.KVStorePrefixIterator(store, ActiveAuctionPrefix)
		for ; iterator.Valid(); iterator.Next() {
			indexed++
		}
		iterator.Close()

		if indexed != open {
			broken = true
			msg += fmt.Sprintf("%d index entries for %d open auctions\n", indexed, open)
		}

		return sdk.FormatInvariant(types.ModuleName, "active-auctions", msg), broken
	}
}
