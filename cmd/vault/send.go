package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
)

func newSend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Signs and broadcasts a transfer",
		Long:  `Unlocks the wallet, signs a native-asset transfer from the selected account and broadcasts it.`,
		Run: func(cmd *cobra.Command, _ []string) {
			runSend(cmd)
		},
	}

	cmd.Flags().String(chainFlag, "", "chain id of the target network")
	cmd.Flags().Uint32(indexFlag, 0, "account index to send from")
	cmd.Flags().String(toFlag, "", "recipient address")
	cmd.Flags().String(amountFlag, "", "amount in base units (wei/uatom/lamports/sats)")
	cmd.Flags().String(memoFlag, "", "memo (account-ledger chains only)")
	_ = cmd.MarkFlagRequired(chainFlag)
	_ = cmd.MarkFlagRequired(toFlag)
	_ = cmd.MarkFlagRequired(amountFlag)

	return cmd
}

func runSend(cmd *cobra.Command) {
	chainID, err := cmd.Flags().GetString(chainFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read chain flag")
	}

	accountIndex, err := cmd.Flags().GetUint32(indexFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read index flag")
	}

	recipient, err := cmd.Flags().GetString(toFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read to flag")
	}

	amountStr, err := cmd.Flags().GetString(amountFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read amount flag")
	}

	memo, err := cmd.Flags().GetString(memoFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read memo flag")
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		log.Fatal().Str("amount", amountStr).Msg("Amount is not a base-10 integer")
	}

	cfg := config.DefaultEngineConfigFromEnv()

	err = command.WithEngine(cmd.Context(), cfg, func(ctx context.Context, e *wallet.Engine) error {
		if err := e.InitializeWallet(ctx); err != nil {
			return err
		}

		receipt, err := e.SendTokens(ctx, wallet.TransferIntent{
			ChainID:      chainID,
			AccountIndex: accountIndex,
			Recipient:    recipient,
			Amount:       amount,
			Memo:         memo,
		})
		if err != nil {
			return err
		}

		//nolint:forbidigo // CLI output
		fmt.Printf("broadcast %s on %s\n", receipt.TxID, receipt.ChainID)
		if receipt.Fee != nil {
			//nolint:forbidigo // CLI output
			fmt.Printf("fee paid: %s base units\n", receipt.Fee)
		}

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to send transfer")
	}
}
