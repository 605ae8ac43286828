package vault

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
)

func newInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Creates or unlocks the wallet",
		Long:  `Creates a new encrypted wallet when none exists yet, otherwise unlocks the existing one to verify the password.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.DefaultEngineConfigFromEnv()

			err := command.WithEngine(cmd.Context(), cfg, func(ctx context.Context, e *wallet.Engine) error {
				return e.InitializeWallet(ctx)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize wallet")
			}
		},
	}
}
