package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Market module sentinel errors with recovery suggestions

var (
	// Lookup errors
	ErrAuctionNotFound = sdkerrors.Register(ModuleName, 2, "auction does not exist")
	ErrTaskNotFound    = sdkerrors.Register(ModuleName, 3, "task does not exist")
	ErrBidNotFound     = sdkerrors.Register(ModuleName, 4, "bid does not exist")
	ErrEscrowNotFound  = sdkerrors.Register(ModuleName, 5, "escrow does not exist")

	// Lifecycle errors
	ErrUnauthorized      = sdkerrors.Register(ModuleName, 10, "caller lacks the required role")
	ErrInvalidState      = sdkerrors.Register(ModuleName, 11, "operation not valid from current state")
	ErrDeadlineViolation = sdkerrors.Register(ModuleName, 12, "governing deadline violated")
	ErrAlreadySettled    = sdkerrors.Register(ModuleName, 13, "escrow already settled")
	ErrConflict          = sdkerrors.Register(ModuleName, 14, "concurrent modification, retries exhausted")
	ErrResultsConflict   = sdkerrors.Register(ModuleName, 15, "results already recorded with a different content identifier")

	// Validation errors
	ErrInvalidRequest      = sdkerrors.Register(ModuleName, 20, "invalid market request")
	ErrInvalidParams       = sdkerrors.Register(ModuleName, 21, "invalid market params")
	ErrInvalidVerification = sdkerrors.Register(ModuleName, 22, "invalid verification commitment")
	ErrInvalidGenesis      = sdkerrors.Register(ModuleName, 23, "invalid market genesis")

	// Funds errors
	ErrInsufficientFunds = sdkerrors.Register(ModuleName, 30, "insufficient funds to lock escrow")
	ErrEscrowTransfer    = sdkerrors.Register(ModuleName, 31, "escrow transfer failed")

	// Query errors
	ErrRateLimited = sdkerrors.Register(ModuleName, 40, "query rate limit exceeded")
)

// ErrorWithRecovery wraps an error with recovery suggestions
type ErrorWithRecovery struct {
	Err      error
	Recovery string
}

func (e *ErrorWithRecovery) Error() string {
	return e.Err.Error()
}

func (e *ErrorWithRecovery) Unwrap() error {
	return e.Err
}

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrAuctionNotFound: "Verify the auction ID. Query active auctions to list auctions that are still open.",
	ErrTaskNotFound:    "Verify the task ID. A task only exists once its auction has been awarded; the task ID equals the auction ID.",
	ErrBidNotFound:     "The provider has no bid on this auction. Query the auction's bids before accepting or selecting one.",
	ErrEscrowNotFound:  "No escrow is recorded for this task. Escrow is locked when the auction is awarded.",

	ErrUnauthorized:      "Only the auction's client may cancel, select, accept or invalidate. Only the awarded provider may activate, complete or publish results.",
	ErrInvalidState:      "The entity is not in a state that permits this operation. Terminal auctions and tasks never change again; query the current state.",
	ErrDeadlineViolation: "The governing deadline has passed or has not yet been reached. Compare the block time with the auction, task or timeout deadline.",
	ErrAlreadySettled:    "Escrow for this task was already released, refunded or split. Query the payment state.",
	ErrConflict:          "Another transition on the same entity committed first. Re-query the entity and resubmit only if the operation is still valid.",
	ErrResultsConflict:   "Results for this task are already recorded. Resubmitting the same identifier is a no-op.",

	ErrInvalidRequest:      "Check message fields: bech32 addresses, positive price and duration, auction deadline before task deadline, valid content identifier.",
	ErrInvalidParams:       "Check parameter bounds: provider share at most 10000 bps, non-zero bid and sweep limits, non-empty denom.",
	ErrInvalidVerification: "The client verification must be 0x followed by 64 hex characters: the keccak-256 hash of the secret.",
	ErrInvalidGenesis:      "Genesis state is inconsistent. Check unique IDs, deadline ordering and that every task has a matching escrow.",

	ErrInsufficientFunds: "The client balance does not cover the accepted bid price. Fund the account before accepting the bid.",
	ErrEscrowTransfer:    "The bank transfer for escrow failed. Check module account permissions and balances.",

	ErrRateLimited: "Too many queries in the time window. Back off and retry later.",
}

// WrapWithRecovery wraps an error with recovery suggestion
func WrapWithRecovery(err error, msg string, args ...interface{}) error {
	wrapped := sdkerrors.Wrapf(err, msg, args...)

	if suggestion, ok := RecoverySuggestions[err]; ok {
		return &ErrorWithRecovery{
			Err:      wrapped,
			Recovery: suggestion,
		}
	}

	return wrapped
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	if suggestion, ok := RecoverySuggestions[rootErr]; ok {
		return suggestion
	}

	return "No recovery suggestion available. Check error message for details."
}

// IsNotFound reports whether err is one of the lookup errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAuctionNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrBidNotFound) ||
		errors.Is(err, ErrEscrowNotFound)
}
