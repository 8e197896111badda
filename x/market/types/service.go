package types

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/types/query"
)

// MsgServer is the intent surface of the market module.
type MsgServer interface {
	CreateAuction(context.Context, *MsgCreateAuction) (*MsgCreateAuctionResponse, error)
	CancelAuction(context.Context, *MsgCancelAuction) (*MsgCancelAuctionResponse, error)
	PlaceBid(context.Context, *MsgPlaceBid) (*MsgPlaceBidResponse, error)
	SelectBid(context.Context, *MsgSelectBid) (*MsgSelectBidResponse, error)
	AcceptBid(context.Context, *MsgAcceptBid) (*MsgAcceptBidResponse, error)
	ActivateTask(context.Context, *MsgActivateTask) (*MsgActivateTaskResponse, error)
	CompleteTask(context.Context, *MsgCompleteTask) (*MsgCompleteTaskResponse, error)
	InvalidateTask(context.Context, *MsgInvalidateTask) (*MsgInvalidateTaskResponse, error)
	ReceiveResults(context.Context, *MsgReceiveResults) (*MsgReceiveResultsResponse, error)
	UpdateParams(context.Context, *MsgUpdateParams) (*MsgUpdateParamsResponse, error)
}

// QueryServer is the read-only surface of the market module.
type QueryServer interface {
	Params(context.Context, *QueryParamsRequest) (*QueryParamsResponse, error)
	ActiveAuctions(context.Context, *QueryActiveAuctionsRequest) (*QueryActiveAuctionsResponse, error)
	Auction(context.Context, *QueryAuctionRequest) (*QueryAuctionResponse, error)
	Bids(context.Context, *QueryBidsRequest) (*QueryBidsResponse, error)
	Task(context.Context, *QueryTaskRequest) (*QueryTaskResponse, error)
	TaskState(context.Context, *QueryTaskStateRequest) (*QueryTaskStateResponse, error)
	PaymentState(context.Context, *QueryPaymentStateRequest) (*QueryPaymentStateResponse, error)
	Payment(context.Context, *QueryPaymentRequest) (*QueryPaymentResponse, error)
	Escrow(context.Context, *QueryEscrowRequest) (*QueryEscrowResponse, error)
	ActivationTime(context.Context, *QueryActivationTimeRequest) (*QueryActivationTimeResponse, error)
	Performance(context.Context, *QueryPerformanceRequest) (*QueryPerformanceResponse, error)
}

type QueryParamsRequest struct{}

type QueryParamsResponse struct {
	Params Params `json:"params"`
}

type QueryActiveAuctionsRequest struct {
	Pagination *query.PageRequest `json:"pagination,omitempty"`
}

// QueryActiveAuctionsResponse lists open auctions in creation order.
type QueryActiveAuctionsResponse struct {
	Auctions   []Auction           `json:"auctions"`
	Pagination *query.PageResponse `json:"pagination,omitempty"`
}

type QueryAuctionRequest struct {
	AuctionID uint64 `json:"auction_id"`
}

type QueryAuctionResponse struct {
	Auction Auction `json:"auction"`
}

type QueryBidsRequest struct {
	AuctionID uint64 `json:"auction_id"`
}

type QueryBidsResponse struct {
	Bids []Bid `json:"bids"`
}

type QueryTaskRequest struct {
	TaskID uint64 `json:"task_id"`
}

type QueryTaskResponse struct {
	Task Task `json:"task"`
}

type QueryTaskStateRequest struct {
	TaskID uint64 `json:"task_id"`
}

type QueryTaskStateResponse struct {
	State TaskState `json:"state"`
}

type QueryPaymentStateRequest struct {
	TaskID uint64 `json:"task_id"`
}

type QueryPaymentStateResponse struct {
	State PaymentState `json:"state"`
}

type QueryPaymentRequest struct {
	TaskID uint64 `json:"task_id"`
}

type QueryPaymentResponse struct {
	Payment Payment `json:"payment"`
}

type QueryEscrowRequest struct {
	TaskID uint64 `json:"task_id"`
}

type QueryEscrowResponse struct {
	Escrow Escrow `json:"escrow"`
}

type QueryActivationTimeRequest struct {
	TaskID uint64 `json:"task_id"`
}

// QueryActivationTimeResponse carries a nil time until the task is activated.
type QueryActivationTimeResponse struct {
	ActivationTime *time.Time `json:"activation_time,omitempty"`
}

type QueryPerformanceRequest struct {
	Provider string `json:"provider"`
}

type QueryPerformanceResponse struct {
	Upvotes   uint64  `json:"upvotes"`
	Downvotes uint64  `json:"downvotes"`
	Score     float64 `json:"score"`
}
