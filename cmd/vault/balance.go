package vault

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
)

func newBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Shows the native balance of an account",
		Run: func(cmd *cobra.Command, _ []string) {
			runBalance(cmd)
		},
	}

	cmd.Flags().String(chainFlag, "", "chain id of the target network")
	cmd.Flags().Uint32(indexFlag, 0, "account index")
	_ = cmd.MarkFlagRequired(chainFlag)

	return cmd
}

func runBalance(cmd *cobra.Command) {
	chainID, err := cmd.Flags().GetString(chainFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read chain flag")
	}

	accountIndex, err := cmd.Flags().GetUint32(indexFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read index flag")
	}

	cfg := config.DefaultEngineConfigFromEnv()

	err = command.WithEngine(cmd.Context(), cfg, func(ctx context.Context, e *wallet.Engine) error {
		bal, err := e.AccountBalance(ctx, chainID, accountIndex)
		if err != nil {
			return err
		}

		//nolint:forbidigo // CLI output
		fmt.Printf("%s %s (%s base units)\n", bal.Display, bal.Denom, bal.Amount)

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch balance")
	}
}
