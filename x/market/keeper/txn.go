package keeper

import (
	"bytes"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

type txnContextKey struct{}

// txn is the read set of one attempt at an atomic transition. It holds the
// parent value of every key the attempt read before writing it.
type txn struct {
	reads   map[string][]byte
	written map[string]struct{}
}

func newTxn() *txn {
	return &txn{
		reads:   make(map[string][]byte),
		written: make(map[string]struct{}),
	}
}

func (tx *txn) observe(key, value []byte) {
	k := string(key)
	if _, ok := tx.reads[k]; ok {
		return
	}
	if _, ok := tx.written[k]; ok {
		return
	}
	if value == nil {
		tx.reads[k] = nil
		return
	}
	tx.reads[k] = bytes.Clone(value)
}

func (tx *txn) write(key []byte) {
	tx.written[string(key)] = struct{}{}
}

// trackedStore records point reads and writes made through it.
type trackedStore struct {
	storetypes.KVStore
	tx *txn
}

func (s trackedStore) Get(key []byte) []byte {
	value := s.KVStore.Get(key)
	s.tx.observe(key, value)
	return value
}

func (s trackedStore) Has(key []byte) bool {
	return s.Get(key) != nil
}

func (s trackedStore) Set(key, value []byte) {
	s.tx.write(key)
	s.KVStore.Set(key, value)
}

func (s trackedStore) Delete(key []byte) {
	s.tx.write(key)
	s.KVStore.Delete(key)
}

// atomic runs fn as a single transition: fn executes on a branch of the
// multistore with its own event manager, and the branch is written only if
// no key fn read has changed in the parent meanwhile. On a conflict the
// whole transition is re-executed, up to MaxCommitRetries more times, after
// which ErrConflict is returned. Errors from fn abort without retry and
// leave no trace. Events reach the parent only after the write.
//
// Calls nested inside a running transition join it.
func (k Keeper) atomic(ctx sdk.Context, operation string, fn func(ctx sdk.Context) error) error {
	if _, nested := ctx.Value(txnContextKey{}).(*txn); nested {
		return fn(ctx)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}

	maxRetries := params.MaxCommitRetries
	for attempt := uint32(0); ; attempt++ {
		tx := newTxn()
		cms := ctx.MultiStore().CacheMultiStore()
		branch := ctx.
			WithMultiStore(cms).
			WithEventManager(sdk.NewEventManager()).
			WithValue(txnContextKey{}, tx)

		if err := fn(branch); err != nil {
			return err
		}

		if k.beforeCommit != nil {
			k.beforeCommit(ctx)
		}

		if k.commit(ctx, tx, cms) {
			ctx.EventManager().EmitEvents(branch.EventManager().Events())
			return nil
		}

		k.metrics.CommitConflicts.WithLabelValues(operation).Inc()
		k.Logger(ctx).Debug("transition conflicted with a concurrent commit",
			"operation", operation,
			"attempt", attempt+1,
		)
		if attempt >= maxRetries {
			return types.ErrConflict.Wrapf("%s: gave up after %d attempts", operation, attempt+1)
		}
	}
}

// commit writes the branch if every recorded read still matches the parent.
func (k Keeper) commit(ctx sdk.Context, tx *txn, cms storetypes.CacheMultiStore) bool {
	k.commitMu.Lock()
	defer k.commitMu.Unlock()

	parent := ctx.KVStore(k.storeKey)
	for key, seen := range tx.reads {
		current := parent.Get([]byte(key))
		if (current == nil) != (seen == nil) || !bytes.Equal(current, seen) {
			return false
		}
	}

	cms.Write()
	return true
}
