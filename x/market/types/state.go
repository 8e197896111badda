package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// AuctionState is the lifecycle state of an auction.
type AuctionState uint8

const (
	AuctionStateUnspecified AuctionState = iota
	AuctionStateOpen
	AuctionStateCancelled
	AuctionStateAwarded
)

var auctionStateNames = map[AuctionState]string{
	AuctionStateUnspecified: "unspecified",
	AuctionStateOpen:        "open",
	AuctionStateCancelled:   "cancelled",
	AuctionStateAwarded:     "awarded",
}

func (s AuctionState) String() string {
	if name, ok := auctionStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("auction_state(%d)", uint8(s))
}

// IsTerminal reports whether no further transition is possible.
func (s AuctionState) IsTerminal() bool {
	return s == AuctionStateCancelled || s == AuctionStateAwarded
}

func (s AuctionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AuctionState) UnmarshalText(text []byte) error {
	for state, name := range auctionStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown auction state %q", text)
}

// TaskState is the lifecycle state of a task.
type TaskState uint8

const (
	TaskStateUnspecified TaskState = iota
	TaskStateCreated
	TaskStateActivated
	TaskStateCompletedSuccessfully
	TaskStateCompletedUnsuccessfully
	TaskStateInvalidated
	TaskStateCancelled
)

var taskStateNames = map[TaskState]string{
	TaskStateUnspecified:             "unspecified",
	TaskStateCreated:                 "created",
	TaskStateActivated:               "activated",
	TaskStateCompletedSuccessfully:   "completed_successfully",
	TaskStateCompletedUnsuccessfully: "completed_unsuccessfully",
	TaskStateInvalidated:             "invalidated",
	TaskStateCancelled:               "cancelled",
}

func (s TaskState) String() string {
	if name, ok := taskStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("task_state(%d)", uint8(s))
}

// IsTerminal reports whether the state is absorbing.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompletedSuccessfully, TaskStateCompletedUnsuccessfully,
		TaskStateInvalidated, TaskStateCancelled:
		return true
	default:
		return false
	}
}

func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TaskState) UnmarshalText(text []byte) error {
	for state, name := range taskStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", text)
}

// PaymentState tracks the escrow outcome of a task.
type PaymentState uint8

const (
	PaymentStateUnspecified PaymentState = iota
	PaymentStateLocked
	PaymentStateReleased
	PaymentStateRefunded
	PaymentStateSplit
)

var paymentStateNames = map[PaymentState]string{
	PaymentStateUnspecified: "unspecified",
	PaymentStateLocked:      "locked",
	PaymentStateReleased:    "released",
	PaymentStateRefunded:    "refunded",
	PaymentStateSplit:       "split",
}

func (s PaymentState) String() string {
	if name, ok := paymentStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("payment_state(%d)", uint8(s))
}

// IsSettled reports whether funds have left escrow.
func (s PaymentState) IsSettled() bool {
	return s == PaymentStateReleased || s == PaymentStateRefunded || s == PaymentStateSplit
}

func (s PaymentState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PaymentState) UnmarshalText(text []byte) error {
	for state, name := range paymentStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown payment state %q", text)
}

// EscrowHolder names who holds escrowed funds of record.
type EscrowHolder string

const (
	HolderPending  EscrowHolder = "pending"
	HolderClient   EscrowHolder = "client"
	HolderProvider EscrowHolder = "provider"
	HolderShared   EscrowHolder = "shared"
)

// Auction is a client's request for bids on a task.
type Auction struct {
	ID                 uint64       `json:"id"`
	Client             string       `json:"client"`
	AuctionDeadline    time.Time    `json:"auction_deadline"`
	TaskDeadline       time.Time    `json:"task_deadline"`
	ClientVerification string       `json:"client_verification"`
	Code               string       `json:"code"`
	State              AuctionState `json:"state"`
	SelectedProvider   string       `json:"selected_provider,omitempty"`
	WinningProvider    string       `json:"winning_provider,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	ClosedAt           *time.Time   `json:"closed_at,omitempty"`
	CloseReason        string       `json:"close_reason,omitempty"`
	Version            uint64       `json:"version"`
}

// Bid is a provider's offer on an open auction.
type Bid struct {
	AuctionID uint64    `json:"auction_id"`
	Provider  string    `json:"provider"`
	Price     math.Int  `json:"price"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Task is the unit of work created when an auction is awarded. Its ID equals
// the auction ID.
type Task struct {
	ID                 uint64       `json:"id"`
	Client             string       `json:"client"`
	AwardedProvider    string       `json:"awarded_provider"`
	Provider           string       `json:"provider,omitempty"`
	Code               string       `json:"code"`
	ClientVerification string       `json:"client_verification"`
	TaskDeadline       time.Time    `json:"task_deadline"`
	Price              math.Int     `json:"price"`
	State              TaskState    `json:"state"`
	ActivationTime     *time.Time   `json:"activation_time,omitempty"`
	Duration           uint64       `json:"duration"`
	ReportedDuration   uint64       `json:"reported_duration,omitempty"`
	Verification       string       `json:"verification,omitempty"`
	SubmittedTime      *time.Time   `json:"submitted_time,omitempty"`
	ResultsCID         string       `json:"results_cid,omitempty"`
	PaymentState       PaymentState `json:"payment_state"`
	CreatedAt          time.Time    `json:"created_at"`
	ClosedAt           *time.Time   `json:"closed_at,omitempty"`
	CloseReason        string       `json:"close_reason,omitempty"`
	Version            uint64       `json:"version"`
}

// ExecutionDeadline is activation time plus the declared duration. Only
// meaningful once activated.
func (t Task) ExecutionDeadline() time.Time {
	if t.ActivationTime == nil {
		return time.Time{}
	}
	return t.ActivationTime.Add(Seconds(t.Duration))
}

// TimeoutAt is the earliest time an activated task may be invalidated.
func (t Task) TimeoutAt(p Params) time.Time {
	return t.ExecutionDeadline().Add(p.TimeoutMargin(t.Duration))
}

// Escrow is the escrow entry held for a task.
type Escrow struct {
	TaskID         uint64       `json:"task_id"`
	Client         string       `json:"client"`
	Provider       string       `json:"provider"`
	Amount         math.Int     `json:"amount"`
	Status         PaymentState `json:"status"`
	ProviderAmount math.Int     `json:"provider_amount"`
	ClientAmount   math.Int     `json:"client_amount"`
	LockedAt       time.Time    `json:"locked_at"`
	SettledAt      *time.Time   `json:"settled_at,omitempty"`
	Version        uint64       `json:"version"`
}

// Holder returns who holds the funds of record.
func (e Escrow) Holder() EscrowHolder {
	switch e.Status {
	case PaymentStateReleased:
		return HolderProvider
	case PaymentStateRefunded:
		return HolderClient
	case PaymentStateSplit:
		return HolderShared
	default:
		return HolderPending
	}
}

// Performance is a provider's reputation record.
type Performance struct {
	Provider  string `json:"provider"`
	Upvotes   uint64 `json:"upvotes"`
	Downvotes uint64 `json:"downvotes"`
	Version   uint64 `json:"version"`
}

// Score returns the confidence-adjusted reputation score.
func (p Performance) Score() float64 {
	return Score(p.Upvotes, p.Downvotes)
}

// Payment is the settlement view of a task's escrow.
type Payment struct {
	TaskID         uint64       `json:"task_id"`
	Amount         math.Int     `json:"amount"`
	State          PaymentState `json:"state"`
	Holder         EscrowHolder `json:"holder"`
	ProviderAmount math.Int     `json:"provider_amount"`
	ClientAmount   math.Int     `json:"client_amount"`
	SettledAt      *time.Time   `json:"settled_at,omitempty"`
}

// PaymentFromEscrow builds the payment view of an escrow entry.
func PaymentFromEscrow(e Escrow) Payment {
	return Payment{
		TaskID:         e.TaskID,
		Amount:         e.Amount,
		State:          e.Status,
		Holder:         e.Holder(),
		ProviderAmount: e.ProviderAmount,
		ClientAmount:   e.ClientAmount,
		SettledAt:      e.SettledAt,
	}
}
