package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// GenesisCmd groups the market genesis subcommands.
func GenesisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Write and check market module genesis state",
	}
	cmd.AddCommand(
		defaultGenesisCmd(v),
		validateGenesisCmd(),
	)
	return cmd
}

func defaultGenesisCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print a default market genesis using the configured params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(v)
			if err != nil {
				return err
			}

			gs := types.DefaultGenesis()
			gs.Params = params
			bz, err := json.MarshalIndent(gs, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal genesis: %w", err)
			}
			cmd.Println(string(bz))
			return nil
		},
	}
}

func validateGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a market genesis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var gs types.GenesisState
			if err := json.Unmarshal(bz, &gs); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if err := gs.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			cmd.Printf("%s: %d auctions, %d bids, %d tasks, %d escrows, %d providers\n",
				args[0], len(gs.Auctions), len(gs.Bids), len(gs.Tasks), len(gs.Escrows), len(gs.Performances))
			return nil
		},
	}
}
