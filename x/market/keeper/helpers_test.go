package keeper_test

import (
	"strconv"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/taskmarket/testutil/keeper"
	"github.com/paw-chain/taskmarket/x/market/keeper"
	"github.com/paw-chain/taskmarket/x/market/types"
)

const (
	testSecret    = "42"
	clientFunds   = 1_000_000
	defaultPrice  = 1_000
	auctionWindow = time.Hour
	taskWindow    = 2 * time.Hour
)

var (
	clientAddr   = sdk.AccAddress([]byte("client______________"))
	providerAddr = sdk.AccAddress([]byte("provider____________"))
	otherAddr    = sdk.AccAddress([]byte("other_______________"))
)

type testEnv struct {
	*keepertest.MarketFixture
	k *keeper.Keeper
}

func setupTest(t testing.TB) *testEnv {
	f := keepertest.NewMarketFixture(t)
	f.Fund(t, clientAddr, clientFunds)
	return &testEnv{MarketFixture: f, k: f.Keeper}
}

func (e *testEnv) createAuction(t testing.TB) uint64 {
	now := e.Ctx.BlockTime()
	id, err := e.k.CreateAuction(e.Ctx, clientAddr,
		now.Add(auctionWindow), now.Add(taskWindow),
		types.CommitVerification(testSecret), "ipfs://task-spec",
	)
	require.NoError(t, err)
	return id
}

func (e *testEnv) awardTask(t testing.TB, price int64) uint64 {
	auctionID := e.createAuction(t)
	require.NoError(t, e.k.PlaceBid(e.Ctx, providerAddr, auctionID, math.NewInt(price)))
	taskID, err := e.k.AcceptBid(e.Ctx, clientAddr, auctionID, providerAddr)
	require.NoError(t, err)
	require.Equal(t, auctionID, taskID)
	return taskID
}

func (e *testEnv) activeTask(t testing.TB, price int64, duration uint64) (uint64, time.Time) {
	taskID := e.awardTask(t, price)
	activatedAt, err := e.k.ActivateTask(e.Ctx, providerAddr, taskID, duration)
	require.NoError(t, err)
	return taskID, activatedAt
}

func (e *testEnv) task(t testing.TB, id uint64) types.Task {
	task, err := e.k.GetTask(e.Ctx, id)
	require.NoError(t, err)
	return task
}

func (e *testEnv) auction(t testing.TB, id uint64) types.Auction {
	auction, err := e.k.GetAuction(e.Ctx, id)
	require.NoError(t, err)
	return auction
}

func (e *testEnv) escrow(t testing.TB, id uint64) types.Escrow {
	escrow, err := e.k.GetEscrow(e.Ctx, id)
	require.NoError(t, err)
	return escrow
}

func (e *testEnv) performance(t testing.TB, addr sdk.AccAddress) types.Performance {
	perf, err := e.k.GetPerformance(e.Ctx, addr)
	require.NoError(t, err)
	return perf
}

func (e *testEnv) requireInvariants(t testing.TB) {
	msg, broken := keeper.AllInvariants(*e.k)(e.Ctx)
	require.False(t, broken, msg)
}

// freshEvents gives the fixture context an empty event manager.
func (e *testEnv) freshEvents() {
	e.Ctx = e.Ctx.WithEventManager(sdk.NewEventManager())
}

func eventsOfType(events sdk.Events, eventType string) []sdk.Event {
	var out []sdk.Event
	for _, ev := range events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func attribute(ev sdk.Event, key string) string {
	for _, attr := range ev.Attributes {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func eventID(t testing.TB, ev sdk.Event) uint64 {
	id, err := strconv.ParseUint(attribute(ev, types.AttributeKeyEventID), 10, 64)
	require.NoError(t, err)
	return id
}
