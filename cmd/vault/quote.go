package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
	"github/helmwallet/wallet-engine/internal/wallet/swap"
)

func newQuote() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quotes a swap against a pool snapshot",
		Long:  `Finds the best route through the pools in the snapshot file and prints the expected and minimum output.`,
		Run: func(cmd *cobra.Command, _ []string) {
			runQuote(cmd)
		},
	}

	cmd.Flags().String(chainFlag, "", "chain id of the target network")
	cmd.Flags().String(fromFlag, "", "denom to swap from")
	cmd.Flags().String(toFlag, "", "denom to swap to")
	cmd.Flags().String(amountFlag, "", "input amount in base units")
	cmd.Flags().String(poolsFlag, "", "path to a JSON pool snapshot")
	_ = cmd.MarkFlagRequired(chainFlag)
	_ = cmd.MarkFlagRequired(fromFlag)
	_ = cmd.MarkFlagRequired(toFlag)
	_ = cmd.MarkFlagRequired(amountFlag)
	_ = cmd.MarkFlagRequired(poolsFlag)

	return cmd
}

func runQuote(cmd *cobra.Command) {
	chainID, err := cmd.Flags().GetString(chainFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read chain flag")
	}

	fromDenom, err := cmd.Flags().GetString(fromFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read from flag")
	}

	toDenom, err := cmd.Flags().GetString(toFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read to flag")
	}

	amountStr, err := cmd.Flags().GetString(amountFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read amount flag")
	}

	poolsPath, err := cmd.Flags().GetString(poolsFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read pools flag")
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		log.Fatal().Str("amount", amountStr).Msg("Amount is not a base-10 integer")
	}

	pools, err := loadPoolSnapshot(poolsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load pool snapshot")
	}

	cfg := config.DefaultEngineConfigFromEnv()

	err = command.WithEngine(cmd.Context(), cfg, func(_ context.Context, e *wallet.Engine) error {
		quote, err := e.QuoteSwap(wallet.SwapQuoteRequest{
			ChainID:   chainID,
			Pools:     pools,
			FromDenom: fromDenom,
			ToDenom:   toDenom,
			AmountIn:  amount,
		})
		if err != nil {
			return err
		}

		//nolint:forbidigo // CLI output
		fmt.Printf("route: %d hop(s)\n", len(quote.Route.Hops))
		for _, hop := range quote.Route.Hops {
			//nolint:forbidigo // CLI output
			fmt.Printf("  pool %d: %s -> %s\n", hop.PoolID, hop.AssetIn, hop.AssetOut)
		}

		impact := quote.Route.PriceImpact.Mul(decimal.NewFromInt(100)).StringFixed(2)

		//nolint:forbidigo // CLI output
		fmt.Printf("expected out: %s %s\nminimum out:  %s %s\nprice impact: %s%%\n",
			quote.Route.AmountOut, toDenom, quote.MinAmountOut, toDenom, impact)

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to quote swap")
	}
}

func loadPoolSnapshot(path string) ([]swap.Pool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // the path is an explicit CLI argument
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pool snapshot")
	}

	var pools []swap.Pool
	if err := json.Unmarshal(data, &pools); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal pool snapshot")
	}

	return pools, nil
}
