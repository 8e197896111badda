package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/taskmarket/testutil/keeper"
	"github.com/paw-chain/taskmarket/x/market/client/rest"
	"github.com/paw-chain/taskmarket/x/market/keeper"
	"github.com/paw-chain/taskmarket/x/market/types"
)

var (
	clientAddr   = sdk.AccAddress([]byte("client______________"))
	providerAddr = sdk.AccAddress([]byte("provider____________"))
)

func newGateway(t *testing.T, qs types.QueryServer, f *keepertest.MarketFixture) http.Handler {
	t.Helper()
	srv := rest.NewServer(rest.DefaultConfig(), qs, func() context.Context { return f.Ctx }, log.NewNopLogger())
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(rest.ClientIDHeader, "tester")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func seedTask(t *testing.T, f *keepertest.MarketFixture) uint64 {
	t.Helper()
	f.Fund(t, clientAddr, 10_000)
	now := f.Ctx.BlockTime()
	auctionID, err := f.Keeper.CreateAuction(f.Ctx, clientAddr,
		now.Add(time.Hour), now.Add(2*time.Hour),
		types.CommitVerification("42"), "ipfs://task-spec",
	)
	require.NoError(t, err)
	require.NoError(t, f.Keeper.PlaceBid(f.Ctx, providerAddr, auctionID, math.NewInt(1_000)))
	taskID, err := f.Keeper.AcceptBid(f.Ctx, clientAddr, auctionID, providerAddr)
	require.NoError(t, err)
	_, err = f.Keeper.ActivateTask(f.Ctx, providerAddr, taskID, 10)
	require.NoError(t, err)
	return taskID
}

func TestGateway_TaskRoutes(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	h := newGateway(t, keeper.NewQueryServerImpl(f.Keeper), f)
	taskID := seedTask(t, f)
	base := "/market/v1/tasks/" + url.PathEscape(jsonID(taskID))

	var task types.QueryTaskResponse
	require.Equal(t, http.StatusOK, get(t, h, base, &task))
	require.Equal(t, taskID, task.Task.ID)
	require.Equal(t, types.TaskStateActivated, task.Task.State)

	var state types.QueryTaskStateResponse
	require.Equal(t, http.StatusOK, get(t, h, base+"/state", &state))
	require.Equal(t, types.TaskStateActivated, state.State)

	var activation types.QueryActivationTimeResponse
	require.Equal(t, http.StatusOK, get(t, h, base+"/activation", &activation))
	require.NotNil(t, activation.ActivationTime)
	require.True(t, activation.ActivationTime.Equal(keepertest.GenesisTime))

	var escrow types.QueryEscrowResponse
	require.Equal(t, http.StatusOK, get(t, h, base+"/escrow", &escrow))
	require.Equal(t, "1000", escrow.Escrow.Amount.String())
	require.Equal(t, types.PaymentStateLocked, escrow.Escrow.Status)

	var payment types.QueryPaymentStateResponse
	require.Equal(t, http.StatusOK, get(t, h, base+"/payment/state", &payment))
	require.Equal(t, types.PaymentStateLocked, payment.State)

	var perf types.QueryPerformanceResponse
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/providers/"+providerAddr.String()+"/performance", &perf))
	require.Zero(t, perf.Upvotes)
	require.Zero(t, perf.Score)
}

func TestGateway_AuctionRoutes(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	h := newGateway(t, keeper.NewQueryServerImpl(f.Keeper), f)
	f.Fund(t, clientAddr, 10_000)

	now := f.Ctx.BlockTime()
	for i := 0; i < 3; i++ {
		_, err := f.Keeper.CreateAuction(f.Ctx, clientAddr,
			now.Add(time.Hour), now.Add(2*time.Hour),
			types.CommitVerification("42"), "ipfs://task-spec",
		)
		require.NoError(t, err)
	}
	require.NoError(t, f.Keeper.PlaceBid(f.Ctx, providerAddr, 2, math.NewInt(500)))

	var page types.QueryActiveAuctionsResponse
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/auctions/active?limit=2", &page))
	require.Len(t, page.Auctions, 2)
	require.NotNil(t, page.Pagination)
	require.NotEmpty(t, page.Pagination.NextKey)

	var rest2 types.QueryActiveAuctionsResponse
	next := url.QueryEscape(encodeKey(page.Pagination.NextKey))
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/auctions/active?key="+next, &rest2))
	require.Len(t, rest2.Auctions, 1)
	require.Equal(t, uint64(3), rest2.Auctions[0].ID)

	var auction types.QueryAuctionResponse
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/auctions/2", &auction))
	require.Equal(t, uint64(2), auction.Auction.ID)

	var bids types.QueryBidsResponse
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/auctions/2/bids", &bids))
	require.Len(t, bids.Bids, 1)
	require.Equal(t, providerAddr.String(), bids.Bids[0].Provider)
}

func TestGateway_Errors(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	h := newGateway(t, keeper.NewQueryServerImpl(f.Keeper), f)

	var body map[string]string
	require.Equal(t, http.StatusNotFound, get(t, h, "/market/v1/tasks/9", &body))
	require.NotEmpty(t, body["error"])

	require.Equal(t, http.StatusBadRequest, get(t, h, "/market/v1/auctions/active?limit=abc", &body))
	require.Equal(t, "invalid limit", body["error"])

	require.Equal(t, http.StatusBadRequest, get(t, h, "/market/v1/providers/not-an-address/performance", &body))

	require.Equal(t, http.StatusNotFound, get(t, h, "/market/v1/tasks/abc", nil))
}

func TestGateway_RateLimitedPerClient(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	qs := keeper.NewRateLimitedQueryServer(keeper.NewQueryServerImpl(f.Keeper), keeper.NewRateLimiter(0.001, 1))
	h := newGateway(t, qs, f)

	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/params", nil))
	require.Equal(t, http.StatusTooManyRequests, get(t, h, "/market/v1/params", nil))

	req := httptest.NewRequest(http.MethodGet, "/market/v1/params", nil)
	req.Header.Set(rest.ClientIDHeader, "someone-else")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateway_HealthMetricsAndCORS(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	h := newGateway(t, keeper.NewQueryServerImpl(f.Keeper), f)

	var health map[string]string
	require.Equal(t, http.StatusOK, get(t, h, "/market/v1/health", &health))
	require.Equal(t, "ok", health["status"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/market/v1/params", nil)
	req.Header.Set("Origin", "https://explorer.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartStop(t *testing.T) {
	f := keepertest.NewMarketFixture(t)
	cfg := rest.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := rest.NewServer(cfg, keeper.NewQueryServerImpl(f.Keeper), func() context.Context { return f.Ctx }, log.NewNopLogger())

	srv.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}
