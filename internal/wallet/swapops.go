package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/balance"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/cosmos"
	"github/helmwallet/wallet-engine/internal/wallet/signer"
	"github/helmwallet/wallet-engine/internal/wallet/swap"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// swapGasLimit covers a multi-hop pool swap message.
const swapGasLimit = 250000

// defaultSlippageBps tolerates a 1% worse fill than quoted.
const defaultSlippageBps = 100

// SwapQuoteRequest 报价请求。池子快照由调用方提供，引擎不拉取行情。
type SwapQuoteRequest struct {
	ChainID      string
	AccountIndex uint32
	Pools        []swap.Pool
	FromDenom    string
	ToDenom      string
	AmountIn     *big.Int
	// MaxHops 为 0 时使用配置的上限。
	MaxHops int
	// SlippageBps 为 0 时使用 defaultSlippageBps。
	SlippageBps int64
}

// SwapQuote 报价结果。
type SwapQuote struct {
	Route *swap.Route
	// MinAmountOut 按滑点容忍度下调后的最低可接受产出。
	MinAmountOut *big.Int
}

// QuoteSwap finds the best route through the supplied pool snapshot and
// derives the slippage-bounded minimum output.
func (e *Engine) QuoteSwap(req SwapQuoteRequest) (*SwapQuote, error) {
	maxHops := req.MaxHops
	if maxHops <= 0 {
		maxHops = e.Config.Swap.MaxHops
	}

	route, err := swap.FindRoute(req.Pools, req.FromDenom, req.ToDenom, req.AmountIn, maxHops)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, errors.Wrapf(walleterrors.ErrNoRouteAvailable, "%s -> %s within %d hops", req.FromDenom, req.ToDenom, maxHops)
	}

	e.Metrics.SwapRouteHops.Observe(float64(len(route.Hops)))

	slippage := req.SlippageBps
	if slippage <= 0 {
		slippage = defaultSlippageBps
	}

	return &SwapQuote{
		Route:        route,
		MinAmountOut: minAmountOut(route.AmountOut, slippage),
	}, nil
}

// ExecuteSwap quotes and then signs and broadcasts a pool swap. Swaps only
// exist on cosmos-family chains.
func (e *Engine) ExecuteSwap(ctx context.Context, req SwapQuoteRequest) (*SendReceipt, error) {
	log := util.LogFromContext(ctx)

	network, err := e.Registry.GetNetwork(req.ChainID)
	if err != nil {
		return nil, err
	}

	if network.Family != chain.FamilyCosmos {
		return nil, errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "swaps require a cosmos chain, got %q", network.Family)
	}

	quote, err := e.QuoteSwap(req)
	if err != nil {
		return nil, err
	}

	client, err := e.netClient(req.ChainID)
	if err != nil {
		return nil, err
	}

	record, err := e.accountRecord(ctx, req.ChainID, req.AccountIndex)
	if err != nil {
		return nil, err
	}

	accountSigner, err := e.signerFor(record)
	if err != nil {
		return nil, err
	}

	unlock := e.lockAccount(record)
	defer unlock()

	done := e.beginSigning()
	defer done()

	e.Sessions.Touch()

	accountNumber, sequence, err := client.CosmosAccount(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	fee, err := cosmosFee(network, swapGasLimit)
	if err != nil {
		return nil, err
	}

	routes := make([]cosmos.SwapRoute, 0, len(quote.Route.Hops))
	for _, hop := range quote.Route.Hops {
		routes = append(routes, cosmos.SwapRoute{
			PoolID:        hop.PoolID,
			TokenOutDenom: hop.AssetOut,
		})
	}

	input := cosmos.TxInput{
		ChainID:       network.ChainID,
		AccountNumber: accountNumber,
		Sequence:      sequence,
		Fee:           fee,
		Msgs: []cosmos.Msg{
			&cosmos.MsgSwapExactIn{
				Sender:            record.Address,
				Routes:            routes,
				TokenIn:           cosmos.Coin{Denom: req.FromDenom, Amount: req.AmountIn.String()},
				TokenOutMinAmount: quote.MinAmountOut.String(),
			},
		},
	}

	resp, err := accountSigner.SignCosmosTransaction(ctx, &signer.SignCosmosRequest{
		DerivationPath: record.DerivationPath,
		Input:          input,
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(network.ChainID).Inc()

	txID, err := client.CosmosBroadcast(ctx, resp.RawTransaction)
	e.recordBroadcast(network.ChainID, err)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("chain_id", network.ChainID).
		Str("tx_id", txID).
		Str("from_denom", req.FromDenom).
		Str("to_denom", req.ToDenom).
		Int("hops", len(quote.Route.Hops)).
		Str("min_amount_out", quote.MinAmountOut.String()).
		Msg("Swap broadcast")

	return &SendReceipt{ChainID: network.ChainID, TxID: txID, From: record.Address}, nil
}

// RefreshBalancesAfterSwap polls the address balance until it moves away from
// the pre-swap amount or the configured attempts run out. The last observed
// balance is returned either way; a nil before skips the comparison.
func (e *Engine) RefreshBalancesAfterSwap(ctx context.Context, chainID string, addr string, before *big.Int) (*balance.Balance, error) {
	network, err := e.Registry.GetNetwork(chainID)
	if err != nil {
		return nil, err
	}

	client, err := e.netClient(chainID)
	if err != nil {
		return nil, err
	}

	var (
		latest  *balance.Balance
		lastErr error
	)

	attempts := e.Config.Swap.RefreshAttempts
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "balance refresh aborted")
			case <-time.After(e.Config.Swap.RefreshInterval):
			}
		}

		latest, lastErr = e.Balances.NativeBalance(ctx, client, network, addr)
		if lastErr != nil {
			continue
		}

		if before == nil || latest.Amount.Cmp(before) != 0 {
			return latest, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return latest, nil
}

// minAmountOut applies the slippage tolerance, rounding down.
func minAmountOut(amountOut *big.Int, slippageBps int64) *big.Int {
	keep := big.NewInt(10000 - slippageBps)
	out := new(big.Int).Mul(amountOut, keep)

	return out.Quo(out, big.NewInt(10000))
}
