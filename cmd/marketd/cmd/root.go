package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. MARKET_HOME.
	EnvPrefix = "MARKET"

	flagHome = "home"
)

// DefaultHome is the default marketd home directory.
var DefaultHome = defaultHome()

func defaultHome() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".taskmarket"
	}
	return filepath.Join(userHome, ".taskmarket")
}

// NewRootCmd creates the root command of marketd, the operator tool for the
// task market module.
func NewRootCmd() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:   "marketd",
		Short: "Task market operator tool",
		Long: `marketd prepares and checks task market state offline: it writes and
validates module genesis, computes verification commitments, canonicalizes
results identifiers and evaluates provider reputation scores.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return v.BindPFlags(cmd.Flags())
		},
	}
	rootCmd.PersistentFlags().String(flagHome, DefaultHome, "directory holding config/market.toml")

	rootCmd.AddCommand(
		GenesisCmd(v),
		CommitCmd(),
		VerifyCmd(),
		ScoreCmd(),
		CIDCmd(),
	)
	return rootCmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}
