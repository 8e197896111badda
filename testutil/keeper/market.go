package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/taskmarket/x/market/keeper"
	"github.com/paw-chain/taskmarket/x/market/types"
)

// FaucetModule is a minting module account used to fund test accounts.
const FaucetModule = "faucet"

// GenesisTime is the block time of a fresh test context.
var GenesisTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// MarketFixture bundles a market keeper with the real auth and bank keepers
// it settles escrow through.
type MarketFixture struct {
	Keeper        *keeper.Keeper
	BankKeeper    bankkeeper.BaseKeeper
	AccountKeeper authkeeper.AccountKeeper
	Ctx           sdk.Context
}

// MarketKeeper creates a test keeper for the market module
func MarketKeeper(t testing.TB) (*keeper.Keeper, sdk.Context) {
	f := NewMarketFixture(t)
	return f.Keeper, f.Ctx
}

// NewMarketFixture mounts the market, auth and bank stores on an in-memory
// database and wires the keepers together. The context's block time is
// GenesisTime.
func NewMarketFixture(t testing.TB) *MarketFixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	authStoreKey := storetypes.NewKVStoreKey(authtypes.StoreKey)
	bankStoreKey := storetypes.NewKVStoreKey(banktypes.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(authStoreKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankStoreKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	registry := codectypes.NewInterfaceRegistry()
	cryptocodec.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	banktypes.RegisterInterfaces(registry)
	cdc := codec.NewProtoCodec(registry)
	authority := authtypes.NewModuleAddress(govtypes.ModuleName)

	maccPerms := map[string][]string{
		types.ModuleName: nil,
		FaucetModule:     {authtypes.Minter},
	}

	accountKeeper := authkeeper.NewAccountKeeper(
		cdc,
		runtime.NewKVStoreService(authStoreKey),
		authtypes.ProtoBaseAccount,
		maccPerms,
		address.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix()),
		sdk.GetConfig().GetBech32AccountAddrPrefix(),
		authority.String(),
	)

	bankKeeper := bankkeeper.NewBaseKeeper(
		cdc,
		runtime.NewKVStoreService(bankStoreKey),
		accountKeeper,
		map[string]bool{},
		authority.String(),
		log.NewNopLogger(),
	)

	k := keeper.NewKeeper(
		storeKey,
		bankKeeper,
		accountKeeper,
		authority.String(),
	)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Height: 1, Time: GenesisTime}, false, log.NewNopLogger())
	require.NoError(t, k.SetParams(ctx, types.DefaultParams()))

	return &MarketFixture{
		Keeper:        k,
		BankKeeper:    bankKeeper,
		AccountKeeper: accountKeeper,
		Ctx:           ctx,
	}
}

// Fund mints amount of the market denom into addr.
func (f *MarketFixture) Fund(t testing.TB, addr sdk.AccAddress, amount int64) {
	coins := sdk.NewCoins(sdk.NewCoin(types.DefaultParams().Denom, math.NewInt(amount)))
	require.NoError(t, f.BankKeeper.MintCoins(f.Ctx, FaucetModule, coins))
	require.NoError(t, f.BankKeeper.SendCoinsFromModuleToAccount(f.Ctx, FaucetModule, addr, coins))
}

// Balance returns addr's balance of the market denom.
func (f *MarketFixture) Balance(addr sdk.AccAddress) math.Int {
	return f.BankKeeper.GetBalance(f.Ctx, addr, types.DefaultParams().Denom).Amount
}

// ModuleBalance returns the market module account's balance of the market denom.
func (f *MarketFixture) ModuleBalance() math.Int {
	return f.Balance(f.AccountKeeper.GetModuleAddress(types.ModuleName))
}

// At moves the fixture's block time and returns the new context.
func (f *MarketFixture) At(t time.Time) sdk.Context {
	f.Ctx = f.Ctx.WithBlockTime(t)
	return f.Ctx
}

// Advance moves the fixture's block time forward by d.
func (f *MarketFixture) Advance(d time.Duration) sdk.Context {
	return f.At(f.Ctx.BlockTime().Add(d))
}
