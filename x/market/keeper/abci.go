package keeper

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// BeginBlocker runs the deadline monitor before any transaction of the block
// is delivered, so intents never act on state whose deadline has passed.
func (k Keeper) BeginBlocker(ctx context.Context) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyBeginBlocker)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := k.ProcessDeadlines(sdkCtx); err != nil {
		// Don't return error - log and continue to prevent block production halt
		newSweepErrorHandler(sdkCtx, k.metrics).HandleError("process_deadlines", SeverityCritical, err)
	}
	return nil
}
