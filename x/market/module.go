package market

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/core/appmodule"
	"github.com/gorilla/mux"
	"github.com/grpc-ecosystem/grpc-gateway/runtime"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"

	"github.com/paw-chain/taskmarket/x/market/client/rest"
	"github.com/paw-chain/taskmarket/x/market/keeper"
	"github.com/paw-chain/taskmarket/x/market/types"
)

var (
	_ module.AppModuleBasic     = AppModuleBasic{}
	_ module.HasGenesisBasics   = AppModuleBasic{}
	_ module.HasInvariants      = AppModule{}
	_ appmodule.AppModule       = AppModule{}
	_ appmodule.HasBeginBlocker = AppModule{}
)

const (
	// DefaultQueryRate is the sustained per-client query rate.
	DefaultQueryRate = 100
	// DefaultQueryBurst is the per-client query burst.
	DefaultQueryBurst = 200
)

// AppModuleBasic defines the basic application module for the market module.
type AppModuleBasic struct{}

// Name returns the market module's name.
func (AppModuleBasic) Name() string {
	return types.ModuleName
}

// RegisterLegacyAminoCodec is a no-op: market messages are JSON encoded.
func (AppModuleBasic) RegisterLegacyAminoCodec(*codec.LegacyAmino) {}

// RegisterInterfaces is a no-op: market messages are not packed into Any.
func (AppModuleBasic) RegisterInterfaces(codectypes.InterfaceRegistry) {}

// RegisterGRPCGatewayRoutes registers the gRPC Gateway routes for the market module.
func (AppModuleBasic) RegisterGRPCGatewayRoutes(client.Context, *runtime.ServeMux) {}

// DefaultGenesis returns the market module's default genesis state.
func (AppModuleBasic) DefaultGenesis(codec.JSONCodec) json.RawMessage {
	bz, err := json.Marshal(types.DefaultGenesis())
	if err != nil {
		panic(fmt.Errorf("failed to marshal default %s genesis: %w", types.ModuleName, err))
	}
	return bz
}

// ValidateGenesis performs genesis state validation for the market module.
func (AppModuleBasic) ValidateGenesis(_ codec.JSONCodec, _ client.TxEncodingConfig, bz json.RawMessage) error {
	var gs types.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	return gs.Validate()
}

// AppModule implements an application module for the market module.
type AppModule struct {
	AppModuleBasic
	keeper      *keeper.Keeper
	msgServer   types.MsgServer
	queryServer types.QueryServer
}

// NewAppModule creates a new AppModule object. Queries are rate limited per
// client at DefaultQueryRate with DefaultQueryBurst.
func NewAppModule(k *keeper.Keeper) AppModule {
	return NewAppModuleWithRateLimit(k, DefaultQueryRate, DefaultQueryBurst)
}

// NewAppModuleWithRateLimit creates a new AppModule whose query server
// allows rps queries per second per client with the given burst.
func NewAppModuleWithRateLimit(k *keeper.Keeper, rps float64, burst int) AppModule {
	return AppModule{
		keeper:    k,
		msgServer: keeper.NewMsgServerImpl(k),
		queryServer: keeper.NewRateLimitedQueryServer(
			keeper.NewQueryServerImpl(k),
			keeper.NewRateLimiter(rps, burst),
		),
	}
}

// IsAppModule implements the appmodule.AppModule interface.
func (am AppModule) IsAppModule() {}

// IsOnePerModuleType implements the appmodule.AppModule interface.
func (am AppModule) IsOnePerModuleType() {}

// MsgServer returns the intent handler of the module.
func (am AppModule) MsgServer() types.MsgServer {
	return am.msgServer
}

// QueryServer returns the rate-limited query handler of the module.
func (am AppModule) QueryServer() types.QueryServer {
	return am.queryServer
}

// RegisterHTTPRoutes mounts the rate-limited query routes on r. ctxProvider
// returns the context queries read committed state through.
func (am AppModule) RegisterHTTPRoutes(r *mux.Router, ctxProvider func() context.Context) {
	rest.NewHandler(am.queryServer, ctxProvider).RegisterRoutes(r)
}

// RegisterInvariants registers the market module's invariants.
func (am AppModule) RegisterInvariants(ir sdk.InvariantRegistry) {
	keeper.RegisterInvariants(ir, *am.keeper)
}

// InitGenesis performs the market module's genesis initialization.
func (am AppModule) InitGenesis(ctx sdk.Context, _ codec.JSONCodec, bz json.RawMessage) {
	var gs types.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		panic(fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err))
	}
	if err := gs.Validate(); err != nil {
		panic(fmt.Errorf("invalid %s genesis state: %w", types.ModuleName, err))
	}
	if err := am.keeper.InitGenesis(ctx, gs); err != nil {
		panic(fmt.Errorf("failed to initialize %s genesis state: %w", types.ModuleName, err))
	}
}

// ExportGenesis returns the market module's exported genesis state as raw JSON bytes.
func (am AppModule) ExportGenesis(ctx sdk.Context, _ codec.JSONCodec) json.RawMessage {
	gs, err := am.keeper.ExportGenesis(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to export %s genesis state: %w", types.ModuleName, err))
	}
	bz, err := json.Marshal(gs)
	if err != nil {
		panic(fmt.Errorf("failed to marshal %s genesis state: %w", types.ModuleName, err))
	}
	return bz
}

// ConsensusVersion implements AppModule/ConsensusVersion.
func (AppModule) ConsensusVersion() uint64 { return 1 }

// BeginBlock runs the deadline monitor at the start of every block.
func (am AppModule) BeginBlock(ctx context.Context) error {
	return am.keeper.BeginBlocker(ctx)
}
