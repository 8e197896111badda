package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// ErrorSeverity classifies failures of forced transitions during a sweep.
type ErrorSeverity int

const (
	// SeverityLow covers stale index cleanup and similar housekeeping.
	SeverityLow ErrorSeverity = iota

	// SeverityMedium covers auction expiry, where no funds are at stake.
	SeverityMedium

	// SeverityHigh covers task timeouts, which hold escrow until they succeed.
	SeverityHigh

	// SeverityCritical indicates a broken invariant.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// sweepErrorHandler records failed forced transitions. A sweep never aborts
// on a single failure: the failed transition rolled back on its own and its
// index entry stays, so the next sweep retries it.
type sweepErrorHandler struct {
	ctx     sdk.Context
	metrics *MarketMetrics
}

func newSweepErrorHandler(ctx sdk.Context, metrics *MarketMetrics) *sweepErrorHandler {
	return &sweepErrorHandler{ctx: ctx, metrics: metrics}
}

// HandleError logs the failure at a level matching its severity and emits
// a monitoring event.
func (h *sweepErrorHandler) HandleError(operation string, severity ErrorSeverity, err error) {
	if err == nil {
		return
	}

	logger := h.ctx.Logger().With("module", "x/"+types.ModuleName)
	fields := []any{
		"operation", operation,
		"severity", severity.String(),
		"error", err.Error(),
	}
	switch severity {
	case SeverityCritical, SeverityHigh:
		logger.Error("forced transition failed", fields...)
	case SeverityMedium:
		logger.Warn("forced transition failed", fields...)
	default:
		logger.Debug("forced transition failed", fields...)
	}

	h.ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeBlockerError,
			sdk.NewAttribute(types.AttributeKeyOperation, operation),
			sdk.NewAttribute(types.AttributeKeySeverity, severity.String()),
			sdk.NewAttribute(types.AttributeKeyError, err.Error()),
			sdk.NewAttribute(types.AttributeKeyHeight, strconv.FormatInt(h.ctx.BlockHeight(), 10)),
		),
	)
	h.metrics.BlockerErrors.WithLabelValues(severity.String()).Inc()
}

// WrapError handles err and reports whether there was one.
func (h *sweepErrorHandler) WrapError(operation string, severity ErrorSeverity, err error) bool {
	if err != nil {
		h.HandleError(operation, severity, err)
		return true
	}
	return false
}
