package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/paw-chain/taskmarket/x/market/types"
)

// CommitCmd prints the verification commitment a client publishes with an
// auction.
func CommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [secret]",
		Short: "Compute the verification commitment of a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(types.CommitVerification(args[0]))
			return nil
		},
	}
}

// VerifyCmd checks a revealed verification value against a commitment.
func VerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [commitment] [verification]",
		Short: "Check a provider's verification against a commitment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := types.ParseVerificationCommitment(args[0]); err != nil {
				return err
			}
			if !types.MatchesVerification(args[0], args[1]) {
				return fmt.Errorf("verification does not match commitment")
			}
			cmd.Println("match")
			return nil
		},
	}
}

// ScoreCmd prints the reputation score for a vote tally.
func ScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [upvotes] [downvotes]",
		Short: "Compute the reputation score of a provider's votes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := cast.ToUint64E(args[0])
			if err != nil {
				return fmt.Errorf("invalid upvotes %q: %w", args[0], err)
			}
			down, err := cast.ToUint64E(args[1])
			if err != nil {
				return fmt.Errorf("invalid downvotes %q: %w", args[1], err)
			}
			cmd.Println(strconv.FormatFloat(types.Score(up, down), 'f', -1, 64))
			return nil
		},
	}
}

// CIDCmd prints the canonical form of a results content identifier.
func CIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cid [identifier]",
		Short: "Validate and canonicalize a results content identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canonical, err := types.ParseResultsCID(args[0])
			if err != nil {
				return err
			}
			cmd.Println(canonical)
			return nil
		},
	}
}
