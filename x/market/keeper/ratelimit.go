package keeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// idleLimiterTTL is how long a client's limiter survives without queries.
const idleLimiterTTL = 5 * time.Minute

// RateLimiter keeps one token bucket per query client.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
// rps: number of requests allowed per second
// burst: maximum burst size
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(rps),
		burst:     burst,
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

// Allow checks if a request from the given client should be allowed
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > idleLimiterTTL {
		for id, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) > idleLimiterTTL {
				delete(rl.limiters, id)
			}
		}
		rl.lastPrune = now
	}

	cl, ok := rl.limiters[clientID]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[clientID] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// getClientID extracts a client identifier from the context
// Priority: metadata > peer IP
func getClientID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if clientIDs := md.Get("x-client-id"); len(clientIDs) > 0 {
			return clientIDs[0]
		}
		if apiKeys := md.Get("x-api-key"); len(apiKeys) > 0 {
			return apiKeys[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}

	return "unknown"
}

// RateLimitedQueryServer wraps a query server with rate limiting
type RateLimitedQueryServer struct {
	types.QueryServer
	limiter *RateLimiter
	metrics *MarketMetrics
}

var _ types.QueryServer = (*RateLimitedQueryServer)(nil)

// NewRateLimitedQueryServer creates a new rate-limited query server
func NewRateLimitedQueryServer(qs types.QueryServer, limiter *RateLimiter) *RateLimitedQueryServer {
	return &RateLimitedQueryServer{
		QueryServer: qs,
		limiter:     limiter,
		metrics:     NewMarketMetrics(),
	}
}

// checkRateLimit checks rate limit and returns error if exceeded
func (rlqs *RateLimitedQueryServer) checkRateLimit(ctx context.Context, method string) error {
	clientID := getClientID(ctx)
	if !rlqs.limiter.Allow(clientID) {
		rlqs.metrics.QueriesRateLimited.Inc()
		return status.Error(codes.ResourceExhausted, fmt.Sprintf("%s: %s", method, types.ErrRateLimited.Error()))
	}
	return nil
}

// Params wraps the Params query with rate limiting
func (rlqs *RateLimitedQueryServer) Params(ctx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Params"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Params(ctx, req)
}

// ActiveAuctions wraps the ActiveAuctions query with rate limiting
func (rlqs *RateLimitedQueryServer) ActiveAuctions(ctx context.Context, req *types.QueryActiveAuctionsRequest) (*types.QueryActiveAuctionsResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "ActiveAuctions"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.ActiveAuctions(ctx, req)
}

// Auction wraps the Auction query with rate limiting
func (rlqs *RateLimitedQueryServer) Auction(ctx context.Context, req *types.QueryAuctionRequest) (*types.QueryAuctionResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Auction"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Auction(ctx, req)
}

// Bids wraps the Bids query with rate limiting
func (rlqs *RateLimitedQueryServer) Bids(ctx context.Context, req *types.QueryBidsRequest) (*types.QueryBidsResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Bids"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Bids(ctx, req)
}

// Task wraps the Task query with rate limiting
func (rlqs *RateLimitedQueryServer) Task(ctx context.Context, req *types.QueryTaskRequest) (*types.QueryTaskResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Task"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Task(ctx, req)
}

// TaskState wraps the TaskState query with rate limiting
func (rlqs *RateLimitedQueryServer) TaskState(ctx context.Context, req *types.QueryTaskStateRequest) (*types.QueryTaskStateResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "TaskState"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.TaskState(ctx, req)
}

// PaymentState wraps the PaymentState query with rate limiting
func (rlqs *RateLimitedQueryServer) PaymentState(ctx context.Context, req *types.QueryPaymentStateRequest) (*types.QueryPaymentStateResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "PaymentState"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.PaymentState(ctx, req)
}

// Payment wraps the Payment query with rate limiting
func (rlqs *RateLimitedQueryServer) Payment(ctx context.Context, req *types.QueryPaymentRequest) (*types.QueryPaymentResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Payment"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Payment(ctx, req)
}

// Escrow wraps the Escrow query with rate limiting
func (rlqs *RateLimitedQueryServer) Escrow(ctx context.Context, req *types.QueryEscrowRequest) (*types.QueryEscrowResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Escrow"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Escrow(ctx, req)
}

// ActivationTime wraps the ActivationTime query with rate limiting
func (rlqs *RateLimitedQueryServer) ActivationTime(ctx context.Context, req *types.QueryActivationTimeRequest) (*types.QueryActivationTimeResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "ActivationTime"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.ActivationTime(ctx, req)
}

// Performance wraps the Performance query with rate limiting
func (rlqs *RateLimitedQueryServer) Performance(ctx context.Context, req *types.QueryPerformanceRequest) (*types.QueryPerformanceResponse, error) {
	if err := rlqs.checkRateLimit(ctx, "Performance"); err != nil {
		return nil, err
	}
	return rlqs.QueryServer.Performance(ctx, req)
}
