package keeper

import (
	"context"
	"errors"

	storeprefix "cosmossdk.io/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/taskmarket/x/market/types"
)

var _ types.QueryServer = queryServer{}

const (
	defaultPaginationLimit = 100
	maxPaginationLimit     = 1000
)

type queryServer struct {
	*Keeper
}

// NewQueryServerImpl returns an implementation of the QueryServer interface
func NewQueryServerImpl(keeper *Keeper) types.QueryServer {
	return &queryServer{Keeper: keeper}
}

// sanitizePagination enforces default and max limits to prevent unbounded queries.
func sanitizePagination(p *query.PageRequest) *query.PageRequest {
	if p == nil {
		return &query.PageRequest{Limit: defaultPaginationLimit}
	}

	if p.Limit == 0 {
		p.Limit = defaultPaginationLimit
	}

	if p.Limit > maxPaginationLimit {
		p.Limit = maxPaginationLimit
	}

	return p
}

// queryError maps keeper errors onto gRPC status codes.
func queryError(err error) error {
	switch {
	case types.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Params returns the module parameters
func (qs queryServer) Params(goCtx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	params, err := qs.Keeper.GetParams(ctx)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryParamsResponse{Params: params}, nil
}

// ActiveAuctions returns the open auctions in creation order with pagination
func (qs queryServer) ActiveAuctions(goCtx context.Context, req *types.QueryActiveAuctionsRequest) (*types.QueryActiveAuctionsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	activeStore := storeprefix.NewStore(qs.getStore(ctx), ActiveAuctionPrefix)

	auctions := []types.Auction{}
	pageRes, err := query.Paginate(activeStore, sanitizePagination(req.Pagination), func(key []byte, _ []byte) error {
		auction, err := qs.Keeper.GetAuction(ctx, sdk.BigEndianToUint64(key))
		if err != nil {
			return err
		}
		auctions = append(auctions, auction)
		return nil
	})
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryActiveAuctionsResponse{
		Auctions:   auctions,
		Pagination: pageRes,
	}, nil
}

// Auction returns an auction by ID
func (qs queryServer) Auction(goCtx context.Context, req *types.QueryAuctionRequest) (*types.QueryAuctionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	auction, err := qs.Keeper.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryAuctionResponse{Auction: auction}, nil
}

// Bids returns all bids on an auction
func (qs queryServer) Bids(goCtx context.Context, req *types.QueryBidsRequest) (*types.QueryBidsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	if _, err := qs.Keeper.GetAuction(ctx, req.AuctionID); err != nil {
		return nil, queryError(err)
	}

	bids := qs.Keeper.GetBids(ctx, req.AuctionID)
	if bids == nil {
		bids = []types.Bid{}
	}
	return &types.QueryBidsResponse{Bids: bids}, nil
}

// Task returns a task by ID
func (qs queryServer) Task(goCtx context.Context, req *types.QueryTaskRequest) (*types.QueryTaskResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	task, err := qs.Keeper.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryTaskResponse{Task: task}, nil
}

// TaskState returns the lifecycle state of a task
func (qs queryServer) TaskState(goCtx context.Context, req *types.QueryTaskStateRequest) (*types.QueryTaskStateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	task, err := qs.Keeper.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryTaskStateResponse{State: task.State}, nil
}

// PaymentState returns the settlement state of a task's escrow
func (qs queryServer) PaymentState(goCtx context.Context, req *types.QueryPaymentStateRequest) (*types.QueryPaymentStateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	escrow, err := qs.Keeper.GetEscrow(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryPaymentStateResponse{State: escrow.Status}, nil
}

// Payment returns the settlement view of a task's escrow
func (qs queryServer) Payment(goCtx context.Context, req *types.QueryPaymentRequest) (*types.QueryPaymentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	escrow, err := qs.Keeper.GetEscrow(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryPaymentResponse{Payment: types.PaymentFromEscrow(escrow)}, nil
}

// Escrow returns the escrow entry of a task
func (qs queryServer) Escrow(goCtx context.Context, req *types.QueryEscrowRequest) (*types.QueryEscrowResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	escrow, err := qs.Keeper.GetEscrow(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryEscrowResponse{Escrow: escrow}, nil
}

// ActivationTime returns when a task was activated, if it has been
func (qs queryServer) ActivationTime(goCtx context.Context, req *types.QueryActivationTimeRequest) (*types.QueryActivationTimeResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	task, err := qs.Keeper.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryActivationTimeResponse{ActivationTime: task.ActivationTime}, nil
}

// Performance returns a provider's votes and reputation score
func (qs queryServer) Performance(goCtx context.Context, req *types.QueryPerformanceRequest) (*types.QueryPerformanceResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	provider, err := sdk.AccAddressFromBech32(req.Provider)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid provider address: %s", err)
	}

	ctx := sdk.UnwrapSDKContext(goCtx)
	perf, err := qs.Keeper.GetPerformance(ctx, provider)
	if err != nil {
		return nil, queryError(err)
	}

	return &types.QueryPerformanceResponse{
		Upvotes:   perf.Upvotes,
		Downvotes: perf.Downvotes,
		Score:     perf.Score(),
	}, nil
}
