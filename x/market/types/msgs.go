package types

import (
	"time"

	"cosmossdk.io/math"
)

// MsgCreateAuction opens an auction for a task.
type MsgCreateAuction struct {
	Client             string    `json:"client"`
	AuctionDeadline    time.Time `json:"auction_deadline"`
	TaskDeadline       time.Time `json:"task_deadline"`
	ClientVerification string    `json:"client_verification"`
	Code               string    `json:"code"`
}

type MsgCreateAuctionResponse struct {
	AuctionID uint64 `json:"auction_id"`
}

// ValidateBasic performs basic validation of MsgCreateAuction
func (msg *MsgCreateAuction) ValidateBasic() error {
	if _, err := ValidateAddress("client", msg.Client); err != nil {
		return err
	}
	if !msg.AuctionDeadline.Before(msg.TaskDeadline) {
		return ErrInvalidRequest.Wrap("auction deadline must be before task deadline")
	}
	if _, err := ParseVerificationCommitment(msg.ClientVerification); err != nil {
		return err
	}
	return ValidateCode(msg.Code)
}

// MsgCancelAuction withdraws an open auction.
type MsgCancelAuction struct {
	Client    string `json:"client"`
	AuctionID uint64 `json:"auction_id"`
}

type MsgCancelAuctionResponse struct{}

// ValidateBasic performs basic validation of MsgCancelAuction
func (msg *MsgCancelAuction) ValidateBasic() error {
	if _, err := ValidateAddress("client", msg.Client); err != nil {
		return err
	}
	return validateID("auction", msg.AuctionID)
}

// MsgPlaceBid offers to execute an auctioned task at a price.
type MsgPlaceBid struct {
	Provider  string   `json:"provider"`
	AuctionID uint64   `json:"auction_id"`
	Price     math.Int `json:"price"`
}

type MsgPlaceBidResponse struct{}

// ValidateBasic performs basic validation of MsgPlaceBid
func (msg *MsgPlaceBid) ValidateBasic() error {
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	if err := validateID("auction", msg.AuctionID); err != nil {
		return err
	}
	if msg.Price.IsNil() || !msg.Price.IsPositive() {
		return ErrInvalidRequest.Wrap("price must be positive")
	}
	return nil
}

// MsgSelectBid marks the bid to award once the auction deadline elapses.
type MsgSelectBid struct {
	Client    string `json:"client"`
	AuctionID uint64 `json:"auction_id"`
	Provider  string `json:"provider"`
}

type MsgSelectBidResponse struct{}

// ValidateBasic performs basic validation of MsgSelectBid
func (msg *MsgSelectBid) ValidateBasic() error {
	if _, err := ValidateAddress("client", msg.Client); err != nil {
		return err
	}
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	return validateID("auction", msg.AuctionID)
}

// MsgAcceptBid awards the auction to a bid immediately.
type MsgAcceptBid struct {
	Client    string `json:"client"`
	AuctionID uint64 `json:"auction_id"`
	Provider  string `json:"provider"`
}

type MsgAcceptBidResponse struct {
	TaskID uint64 `json:"task_id"`
}

// ValidateBasic performs basic validation of MsgAcceptBid
func (msg *MsgAcceptBid) ValidateBasic() error {
	if _, err := ValidateAddress("client", msg.Client); err != nil {
		return err
	}
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	return validateID("auction", msg.AuctionID)
}

// MsgActivateTask starts execution of an awarded task.
type MsgActivateTask struct {
	Provider string `json:"provider"`
	TaskID   uint64 `json:"task_id"`
	// Duration is the declared execution time in seconds.
	Duration uint64 `json:"duration"`
}

type MsgActivateTaskResponse struct {
	ActivationTime time.Time `json:"activation_time"`
}

// ValidateBasic performs basic validation of MsgActivateTask
func (msg *MsgActivateTask) ValidateBasic() error {
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	if err := validateID("task", msg.TaskID); err != nil {
		return err
	}
	if msg.Duration == 0 {
		return ErrInvalidRequest.Wrap("duration must be positive")
	}
	return nil
}

// MsgCompleteTask submits the verification secret for an activated task.
type MsgCompleteTask struct {
	Provider      string    `json:"provider"`
	TaskID        uint64    `json:"task_id"`
	Verification  string    `json:"verification"`
	Duration      uint64    `json:"duration"`
	SubmittedTime time.Time `json:"submitted_time"`
}

// MsgCompleteTaskResponse reports the state the task settled in. Late is set
// when the submission missed the completion window and the task was
// invalidated instead.
type MsgCompleteTaskResponse struct {
	State TaskState `json:"state"`
	Late  bool      `json:"late"`
}

// ValidateBasic performs basic validation of MsgCompleteTask
func (msg *MsgCompleteTask) ValidateBasic() error {
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	if err := validateID("task", msg.TaskID); err != nil {
		return err
	}
	if msg.SubmittedTime.IsZero() {
		return ErrInvalidRequest.Wrap("submitted time is required")
	}
	return nil
}

// MsgInvalidateTask invalidates an activated task whose timeout has elapsed.
type MsgInvalidateTask struct {
	Client string `json:"client"`
	TaskID uint64 `json:"task_id"`
}

type MsgInvalidateTaskResponse struct{}

// ValidateBasic performs basic validation of MsgInvalidateTask
func (msg *MsgInvalidateTask) ValidateBasic() error {
	if _, err := ValidateAddress("client", msg.Client); err != nil {
		return err
	}
	return validateID("task", msg.TaskID)
}

// MsgReceiveResults attaches the results content identifier to a
// successfully completed task.
type MsgReceiveResults struct {
	Provider   string `json:"provider"`
	TaskID     uint64 `json:"task_id"`
	ResultsCID string `json:"results_cid"`
}

type MsgReceiveResultsResponse struct{}

// ValidateBasic performs basic validation of MsgReceiveResults
func (msg *MsgReceiveResults) ValidateBasic() error {
	if _, err := ValidateAddress("provider", msg.Provider); err != nil {
		return err
	}
	if err := validateID("task", msg.TaskID); err != nil {
		return err
	}
	_, err := ParseResultsCID(msg.ResultsCID)
	return err
}

// MsgUpdateParams replaces the module parameters. Only the module authority
// may send it.
type MsgUpdateParams struct {
	Authority string `json:"authority"`
	Params    Params `json:"params"`
}

type MsgUpdateParamsResponse struct{}

// ValidateBasic performs basic validation of MsgUpdateParams
func (msg *MsgUpdateParams) ValidateBasic() error {
	if _, err := ValidateAddress("authority", msg.Authority); err != nil {
		return err
	}
	return msg.Params.Validate()
}

func validateID(kind string, id uint64) error {
	if id == 0 {
		return ErrInvalidRequest.Wrapf("%s id must be positive", kind)
	}
	return nil
}
