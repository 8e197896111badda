package keeper

import (
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// Keeper of the market store
type Keeper struct {
	storeKey      storetypes.StoreKey
	bankKeeper    types.BankKeeper
	accountKeeper types.AccountKeeper
	authority     string

	metrics *MarketMetrics

	// commitMu serializes the validate-and-write step of every atomic
	// transition so that read sets are checked against a stable parent.
	commitMu *sync.Mutex

	// beforeCommit, when set, runs after a transition computed its effects
	// and before they are committed.
	beforeCommit func(ctx sdk.Context)
}

// NewKeeper creates a new market Keeper instance
func NewKeeper(
	key storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	accountKeeper types.AccountKeeper,
	authority string,
) *Keeper {
	return &Keeper{
		storeKey:      key,
		bankKeeper:    bankKeeper,
		accountKeeper: accountKeeper,
		authority:     authority,
		metrics:       NewMarketMetrics(),
		commitMu:      &sync.Mutex{},
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", "x/"+types.ModuleName)
}

// GetAuthority returns the address allowed to update params.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// getStore returns the KVStore for the market module. Inside an atomic
// transition every read is recorded for commit-time conflict detection.
func (k Keeper) getStore(ctx sdk.Context) storetypes.KVStore {
	store := ctx.KVStore(k.storeKey)
	if tx, ok := ctx.Value(txnContextKey{}).(*txn); ok {
		return trackedStore{KVStore: store, tx: tx}
	}
	return store
}

func (k Keeper) getJSON(ctx sdk.Context, key []byte, out any) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, out); err != nil {
		return false, fmt.Errorf("failed to decode %x: %w", key, err)
	}
	return true, nil
}

func (k Keeper) setJSON(ctx sdk.Context, key []byte, v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %x: %w", key, err)
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}

func (k Keeper) getCounter(ctx sdk.Context, key []byte) uint64 {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return 1
	}
	return sdk.BigEndianToUint64(bz)
}

func (k Keeper) setCounter(ctx sdk.Context, key []byte, next uint64) {
	k.getStore(ctx).Set(key, sdk.Uint64ToBigEndian(next))
}

// nextSequence returns the counter's current value and advances it.
func (k Keeper) nextSequence(ctx sdk.Context, key []byte) uint64 {
	id := k.getCounter(ctx, key)
	k.setCounter(ctx, key, id+1)
	return id
}

// iterateJSON decodes every value under prefix in key order.
func iterateJSON[T any](store storetypes.KVStore, prefix []byte, cb func(T) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var v T
		if err := json.Unmarshal(iterator.Value(), &v); err != nil {
			return fmt.Errorf("failed to decode %x: %w", iterator.Key(), err)
		}
		if cb(v) {
			break
		}
	}
	return nil
}
