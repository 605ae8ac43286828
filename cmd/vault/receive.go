package vault

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
)

func newReceive() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Shows a receive address with QR code",
		Long:  `Unlocks the wallet, derives the requested account and prints its address as text and terminal QR code.`,
		Run: func(cmd *cobra.Command, _ []string) {
			runReceive(cmd)
		},
	}

	cmd.Flags().String(chainFlag, "", "chain id of the target network")
	cmd.Flags().Uint32(indexFlag, 0, "account index to derive")
	_ = cmd.MarkFlagRequired(chainFlag)

	return cmd
}

func runReceive(cmd *cobra.Command) {
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
		if err := e.InitializeWallet(ctx); err != nil {
			return err
		}

		account, err := e.DeriveAccount(ctx, chainID, accountIndex)
		if err != nil {
			return err
		}

		qr, err := qrcode.New(account.Address, qrcode.Medium)
		if err != nil {
			return errors.Wrap(err, "failed to render QR code")
		}

		//nolint:forbidigo // CLI output
		fmt.Printf("%s\n%s (%s)\n", qr.ToSmallString(false), account.Address, account.DerivationPath)

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to derive receive address")
	}
}
