package keeper

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	metrics "github.com/hashicorp/go-metrics"

	"github.com/paw-chain/taskmarket/x/market/types"
)

var _ types.MsgServer = msgServer{}

type msgServer struct {
	*Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// begin unwraps the context and applies every timeout that is already due,
// so the intent never acts on stale state.
func (ms msgServer) begin(goCtx context.Context, msgType string) sdk.Context {
	ctx := sdk.UnwrapSDKContext(goCtx)
	if _, err := ms.ProcessDeadlines(ctx); err != nil {
		newSweepErrorHandler(ctx, ms.metrics).HandleError("pre_intent_sweep", SeverityHigh, err)
	}
	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "msg"},
		1,
		[]metrics.Label{telemetry.NewLabel("type", msgType)},
	)
	return ctx
}

func measure(msgType string, start time.Time) {
	telemetry.MeasureSince(start, types.ModuleName, "msg", msgType)
}

// CreateAuction handles the creation of a new auction
func (ms msgServer) CreateAuction(goCtx context.Context, msg *types.MsgCreateAuction) (*types.MsgCreateAuctionResponse, error) {
	defer measure("create_auction", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	client, err := types.ValidateAddress("client", msg.Client)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "create_auction")
	auctionID, err := ms.Keeper.CreateAuction(ctx, client, msg.AuctionDeadline, msg.TaskDeadline, msg.ClientVerification, msg.Code)
	if err != nil {
		return nil, err
	}

	return &types.MsgCreateAuctionResponse{AuctionID: auctionID}, nil
}

// CancelAuction handles withdrawal of an open auction by its client
func (ms msgServer) CancelAuction(goCtx context.Context, msg *types.MsgCancelAuction) (*types.MsgCancelAuctionResponse, error) {
	defer measure("cancel_auction", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	client, err := types.ValidateAddress("client", msg.Client)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "cancel_auction")
	if err := ms.Keeper.CancelAuction(ctx, client, msg.AuctionID); err != nil {
		return nil, err
	}

	return &types.MsgCancelAuctionResponse{}, nil
}

// PlaceBid handles a provider's bid
func (ms msgServer) PlaceBid(goCtx context.Context, msg *types.MsgPlaceBid) (*types.MsgPlaceBidResponse, error) {
	defer measure("place_bid", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "place_bid")
	if err := ms.Keeper.PlaceBid(ctx, provider, msg.AuctionID, msg.Price); err != nil {
		return nil, err
	}

	return &types.MsgPlaceBidResponse{}, nil
}

// SelectBid handles the client's choice of bid to award at the deadline
func (ms msgServer) SelectBid(goCtx context.Context, msg *types.MsgSelectBid) (*types.MsgSelectBidResponse, error) {
	defer measure("select_bid", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	client, err := types.ValidateAddress("client", msg.Client)
	if err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "select_bid")
	if err := ms.Keeper.SelectBid(ctx, client, msg.AuctionID, provider); err != nil {
		return nil, err
	}

	return &types.MsgSelectBidResponse{}, nil
}

// AcceptBid handles immediate award of an auction
func (ms msgServer) AcceptBid(goCtx context.Context, msg *types.MsgAcceptBid) (*types.MsgAcceptBidResponse, error) {
	defer measure("accept_bid", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	client, err := types.ValidateAddress("client", msg.Client)
	if err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "accept_bid")
	taskID, err := ms.Keeper.AcceptBid(ctx, client, msg.AuctionID, provider)
	if err != nil {
		return nil, err
	}

	return &types.MsgAcceptBidResponse{TaskID: taskID}, nil
}

// ActivateTask handles the start of task execution
func (ms msgServer) ActivateTask(goCtx context.Context, msg *types.MsgActivateTask) (*types.MsgActivateTaskResponse, error) {
	defer measure("activate_task", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "activate_task")
	activatedAt, err := ms.Keeper.ActivateTask(ctx, provider, msg.TaskID, msg.Duration)
	if err != nil {
		return nil, err
	}

	return &types.MsgActivateTaskResponse{ActivationTime: activatedAt}, nil
}

// CompleteTask handles a provider's completion submission
func (ms msgServer) CompleteTask(goCtx context.Context, msg *types.MsgCompleteTask) (*types.MsgCompleteTaskResponse, error) {
	defer measure("complete_task", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "complete_task")
	state, late, err := ms.Keeper.CompleteTask(ctx, provider, msg.TaskID, msg.Verification, msg.Duration, msg.SubmittedTime)
	if err != nil {
		return nil, err
	}

	return &types.MsgCompleteTaskResponse{State: state, Late: late}, nil
}

// InvalidateTask handles a client's invalidation of a timed out task
func (ms msgServer) InvalidateTask(goCtx context.Context, msg *types.MsgInvalidateTask) (*types.MsgInvalidateTaskResponse, error) {
	defer measure("invalidate_task", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	client, err := types.ValidateAddress("client", msg.Client)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "invalidate_task")
	if err := ms.Keeper.InvalidateTask(ctx, client, msg.TaskID); err != nil {
		return nil, err
	}

	return &types.MsgInvalidateTaskResponse{}, nil
}

// ReceiveResults handles publication of a task's results identifier
func (ms msgServer) ReceiveResults(goCtx context.Context, msg *types.MsgReceiveResults) (*types.MsgReceiveResultsResponse, error) {
	defer measure("receive_results", time.Now())

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := types.ValidateAddress("provider", msg.Provider)
	if err != nil {
		return nil, err
	}

	ctx := ms.begin(goCtx, "receive_results")
	if err := ms.Keeper.ReceiveResults(ctx, provider, msg.TaskID, msg.ResultsCID); err != nil {
		return nil, err
	}

	return &types.MsgReceiveResultsResponse{}, nil
}

// UpdateParams handles governance updates of the module parameters
func (ms msgServer) UpdateParams(goCtx context.Context, msg *types.MsgUpdateParams) (*types.MsgUpdateParamsResponse, error) {
	if ms.authority != msg.Authority {
		return nil, types.ErrUnauthorized.Wrapf("invalid authority; expected %s, got %s", ms.authority, msg.Authority)
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	if err := ms.SetParams(ctx, msg.Params); err != nil {
		return nil, err
	}

	return &types.MsgUpdateParamsResponse{}, nil
}
