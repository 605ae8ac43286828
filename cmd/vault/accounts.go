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

func newAccounts() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Lists registered accounts",
		Long:  `Lists every derived and imported account from the wallet metadata. No password required.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.DefaultEngineConfigFromEnv()

			err := command.WithEngine(cmd.Context(), cfg, func(ctx context.Context, e *wallet.Engine) error {
				accounts, err := e.Accounts(ctx)
				if err != nil {
					return err
				}

				for _, account := range accounts {
					kind := "derived"
					if account.Imported {
						kind = "imported"
					}

					//nolint:forbidigo // CLI output
					fmt.Printf("%-14s %3d  %-8s  %-46s  %s\n", account.ChainID, account.AccountIndex, kind, account.Address, account.Name)
				}

				return nil
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to list accounts")
			}
		},
	}
}
