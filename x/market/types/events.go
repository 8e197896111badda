package types

// Event types for the market module
// All event types use lowercase with underscore separator (module_action format)
const (
	// Auction events
	EventTypeAuctionCreated   = "market_auction_created"
	EventTypeAuctionCancelled = "market_auction_cancelled"
	EventTypeAuctionAwarded   = "market_auction_awarded"
	EventTypeBidPlaced        = "market_bid_placed"
	EventTypeBidSelected      = "market_bid_selected"

	// Task events
	EventTypeTaskCreated                 = "market_task_created"
	EventTypeTaskActivated               = "market_task_activated"
	EventTypeTaskCompletedSuccessfully   = "market_task_completed_successfully"
	EventTypeTaskCompletedUnsuccessfully = "market_task_completed_unsuccessfully"
	EventTypeTaskInvalidated             = "market_task_invalidated"
	EventTypeTaskCancelled               = "market_task_cancelled"
	EventTypeTaskReceivedResults         = "market_task_received_results"

	// Reputation events
	EventTypeProviderUpvoted   = "market_provider_upvoted"
	EventTypeProviderDownvoted = "market_provider_downvoted"

	// Escrow events
	EventTypeEscrowLocked   = "market_escrow_locked"
	EventTypeEscrowReleased = "market_escrow_released"
	EventTypeEscrowRefunded = "market_escrow_refunded"
	EventTypeEscrowSplit    = "market_escrow_split"

	// Monitoring events
	EventTypeDeadlineSweep = "market_deadline_sweep"
	EventTypeBlockerError  = "market_blocker_error"
)

// Event attribute keys for the market module
// All attribute keys use lowercase with underscore separator
const (
	AttributeKeyEventID          = "event_id"
	AttributeKeyAuctionID        = "auction_id"
	AttributeKeyTaskID           = "task_id"
	AttributeKeyClient           = "client"
	AttributeKeyProvider         = "provider"
	AttributeKeyPrice            = "price"
	AttributeKeyAmount           = "amount"
	AttributeKeyProviderAmount   = "provider_amount"
	AttributeKeyClientAmount     = "client_amount"
	AttributeKeyAuctionDeadline  = "auction_deadline"
	AttributeKeyTaskDeadline     = "task_deadline"
	AttributeKeyCode             = "code"
	AttributeKeyActivationTime   = "activation_time"
	AttributeKeyDuration         = "duration"
	AttributeKeySubmittedTime    = "submitted_time"
	AttributeKeyResultsCID       = "results_cid"
	AttributeKeyReason           = "reason"
	AttributeKeyUpvotes          = "upvotes"
	AttributeKeyDownvotes        = "downvotes"
	AttributeKeyCount            = "count"
	AttributeKeyHeight           = "height"
	AttributeKeyOperation        = "operation"
	AttributeKeySeverity         = "severity"
	AttributeKeyError            = "error"
	AttributeKeyTimestamp        = "timestamp"
	AttributeKeyVerificationHash = "verification_hash"
)

// Close reasons carried by cancellation and invalidation events.
const (
	ReasonClientCancelled = "client_cancelled"
	ReasonExpired         = "expired"
	ReasonUnfunded        = "unfunded"
	ReasonNotActivated    = "not_activated"
	ReasonTimeout         = "timeout"
	ReasonLateSubmission  = "late_submission"
	ReasonClientTimeout   = "client_invalidated"
)
