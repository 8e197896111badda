package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// configFile returns the market config path under home.
func configFile(home string) string {
	return filepath.Join(home, "config", "market.toml")
}

// loadParams returns the default market params overlaid with the [params]
// table of config/market.toml and MARKET_PARAMS_* environment variables.
// A missing config file is not an error.
func loadParams(v *viper.Viper) (types.Params, error) {
	home := v.GetString(flagHome)
	if home == "" {
		home = DefaultHome
	}

	v.SetConfigType("toml")
	v.SetConfigFile(configFile(home))
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return types.Params{}, fmt.Errorf("failed to read %s: %w", configFile(home), err)
		}
	}

	params := types.DefaultParams()
	if v.IsSet("params.denom") {
		params.Denom = v.GetString("params.denom")
	}
	if v.IsSet("params.timeout-margin-factor") {
		params.TimeoutMarginFactor = v.GetUint64("params.timeout-margin-factor")
	}
	if v.IsSet("params.completion-grace-seconds") {
		params.CompletionGraceSeconds = v.GetUint64("params.completion-grace-seconds")
	}
	if v.IsSet("params.invalidation-provider-share-bps") {
		params.InvalidationProviderShareBps = v.GetUint32("params.invalidation-provider-share-bps")
	}
	if v.IsSet("params.max-commit-retries") {
		params.MaxCommitRetries = v.GetUint32("params.max-commit-retries")
	}
	if v.IsSet("params.max-bids-per-auction") {
		params.MaxBidsPerAuction = v.GetUint32("params.max-bids-per-auction")
	}
	if v.IsSet("params.max-deadline-sweep") {
		params.MaxDeadlineSweep = v.GetUint32("params.max-deadline-sweep")
	}

	if err := params.Validate(); err != nil {
		return types.Params{}, err
	}
	return params, nil
}
