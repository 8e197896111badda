package keeper

import (
	"strconv"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// emitEvent emits a lifecycle event stamped with the next event sequence
// number. Inside an atomic transition the sequence advance and the event
// are both discarded if the transition does not commit.
func (k Keeper) emitEvent(ctx sdk.Context, eventType string, attrs ...sdk.Attribute) {
	id := k.nextSequence(ctx, NextEventIDKey)
	all := make([]sdk.Attribute, 0, len(attrs)+1)
	all = append(all, sdk.NewAttribute(types.AttributeKeyEventID, strconv.FormatUint(id, 10)))
	all = append(all, attrs...)
	ctx.EventManager().EmitEvent(sdk.NewEvent(eventType, all...))
}

func idAttr(key string, id uint64) sdk.Attribute {
	return sdk.NewAttribute(key, strconv.FormatUint(id, 10))
}

func timeAttr(key string, t time.Time) sdk.Attribute {
	return sdk.NewAttribute(key, t.UTC().Format(time.RFC3339))
}
