package types

import (
	"fmt"
)

// GenesisState defines the market module's genesis state
type GenesisState struct {
	Params        Params        `json:"params"`
	Auctions      []Auction     `json:"auctions"`
	Bids          []Bid         `json:"bids"`
	Tasks         []Task        `json:"tasks"`
	Escrows       []Escrow      `json:"escrows"`
	Performances  []Performance `json:"performances"`
	NextAuctionID uint64        `json:"next_auction_id"`
	NextEventID   uint64        `json:"next_event_id"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:        DefaultParams(),
		Auctions:      []Auction{},
		Bids:          []Bid{},
		Tasks:         []Task{},
		Escrows:       []Escrow{},
		Performances:  []Performance{},
		NextAuctionID: 1,
		NextEventID:   1,
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if gs.NextAuctionID == 0 || gs.NextEventID == 0 {
		return ErrInvalidGenesis.Wrap("id counters start at 1")
	}

	auctions := make(map[uint64]Auction, len(gs.Auctions))
	for _, a := range gs.Auctions {
		if a.ID == 0 || a.ID >= gs.NextAuctionID {
			return ErrInvalidGenesis.Wrapf("auction id %d outside [1, %d)", a.ID, gs.NextAuctionID)
		}
		if _, dup := auctions[a.ID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate auction %d", a.ID)
		}
		if _, err := ValidateAddress("client", a.Client); err != nil {
			return ErrInvalidGenesis.Wrapf("auction %d: %v", a.ID, err)
		}
		if !a.AuctionDeadline.Before(a.TaskDeadline) {
			return ErrInvalidGenesis.Wrapf("auction %d: auction deadline not before task deadline", a.ID)
		}
		if a.State == AuctionStateUnspecified {
			return ErrInvalidGenesis.Wrapf("auction %d: unspecified state", a.ID)
		}
		auctions[a.ID] = a
	}

	bids := make(map[string]struct{}, len(gs.Bids))
	for _, b := range gs.Bids {
		if _, ok := auctions[b.AuctionID]; !ok {
			return ErrInvalidGenesis.Wrapf("bid for unknown auction %d", b.AuctionID)
		}
		key := fmt.Sprintf("%d/%s", b.AuctionID, b.Provider)
		if _, dup := bids[key]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate bid %s", key)
		}
		if b.Price.IsNil() || !b.Price.IsPositive() {
			return ErrInvalidGenesis.Wrapf("bid %s: price must be positive", key)
		}
		bids[key] = struct{}{}
	}

	escrows := make(map[uint64]Escrow, len(gs.Escrows))
	for _, e := range gs.Escrows {
		if _, dup := escrows[e.TaskID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate escrow %d", e.TaskID)
		}
		if e.Amount.IsNil() || e.Amount.IsNegative() {
			return ErrInvalidGenesis.Wrapf("escrow %d: invalid amount", e.TaskID)
		}
		if _, err := ValidateAddress("client", e.Client); err != nil {
			return ErrInvalidGenesis.Wrapf("escrow %d: %v", e.TaskID, err)
		}
		if _, err := ValidateAddress("provider", e.Provider); err != nil {
			return ErrInvalidGenesis.Wrapf("escrow %d: %v", e.TaskID, err)
		}
		escrows[e.TaskID] = e
	}

	tasks := make(map[uint64]struct{}, len(gs.Tasks))
	for _, t := range gs.Tasks {
		if _, dup := tasks[t.ID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate task %d", t.ID)
		}
		tasks[t.ID] = struct{}{}
		if err := validateGenesisTask(t); err != nil {
			return err
		}
		if a, ok := auctions[t.ID]; ok && a.State != AuctionStateAwarded {
			return ErrInvalidGenesis.Wrapf("task %d: auction not awarded", t.ID)
		}
		e, ok := escrows[t.ID]
		if !ok {
			return ErrInvalidGenesis.Wrapf("task %d: missing escrow", t.ID)
		}
		if e.Client != t.Client || e.Provider != t.AwardedProvider {
			return ErrInvalidGenesis.Wrapf("task %d: escrow parties differ from task", t.ID)
		}
		if !e.Amount.Equal(t.Price) {
			return ErrInvalidGenesis.Wrapf("task %d: price %s, escrow amount %s", t.ID, t.Price, e.Amount)
		}
		if e.Status != t.PaymentState {
			return ErrInvalidGenesis.Wrapf("task %d: payment state %s, escrow %s", t.ID, t.PaymentState, e.Status)
		}
		if t.State.IsTerminal() == (e.Status == PaymentStateLocked) {
			return ErrInvalidGenesis.Wrapf("task %d: state %s inconsistent with escrow %s", t.ID, t.State, e.Status)
		}
	}
	for id := range escrows {
		if _, ok := tasks[id]; !ok {
			return ErrInvalidGenesis.Wrapf("escrow %d without task", id)
		}
	}

	providers := make(map[string]struct{}, len(gs.Performances))
	for _, p := range gs.Performances {
		if _, dup := providers[p.Provider]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate performance record %s", p.Provider)
		}
		providers[p.Provider] = struct{}{}
	}

	return nil
}

// validateGenesisTask checks the fields a task in the given state relies on.
func validateGenesisTask(t Task) error {
	if t.ID == 0 {
		return ErrInvalidGenesis.Wrap("task id must be positive")
	}
	if t.State == TaskStateUnspecified {
		return ErrInvalidGenesis.Wrapf("task %d: unspecified state", t.ID)
	}
	if _, err := ValidateAddress("client", t.Client); err != nil {
		return ErrInvalidGenesis.Wrapf("task %d: %v", t.ID, err)
	}
	if _, err := ValidateAddress("awarded provider", t.AwardedProvider); err != nil {
		return ErrInvalidGenesis.Wrapf("task %d: %v", t.ID, err)
	}
	if t.Provider != "" {
		if _, err := ValidateAddress("provider", t.Provider); err != nil {
			return ErrInvalidGenesis.Wrapf("task %d: %v", t.ID, err)
		}
	}
	if t.Price.IsNil() || !t.Price.IsPositive() {
		return ErrInvalidGenesis.Wrapf("task %d: price must be positive", t.ID)
	}

	switch t.State {
	case TaskStateActivated, TaskStateCompletedSuccessfully, TaskStateCompletedUnsuccessfully, TaskStateInvalidated:
		if t.ActivationTime == nil {
			return ErrInvalidGenesis.Wrapf("task %d: %s without activation time", t.ID, t.State)
		}
		if t.Duration == 0 {
			return ErrInvalidGenesis.Wrapf("task %d: %s without duration", t.ID, t.State)
		}
		if t.Provider == "" {
			return ErrInvalidGenesis.Wrapf("task %d: %s without provider", t.ID, t.State)
		}
	}
	return nil
}
