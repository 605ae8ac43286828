// Package swap routes asset swaps across constant-product liquidity pools.
// All money arithmetic is integer big.Int, decimals are used only for the
// reported price-impact and fee-rate ratios.
package swap

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// bpsDenominator is the fee basis-point scale: feeBps of 30 means 0.30%.
const bpsDenominator = 10000

// Pool is one constant-product liquidity pool between two assets.
// 恒定乘积流动性池
type Pool struct {
	ID       uint64   `json:"id"`
	AssetA   string   `json:"assetA"`
	AssetB   string   `json:"assetB"`
	ReserveA *big.Int `json:"reserveA"`
	ReserveB *big.Int `json:"reserveB"`

	// FeeBps 输入侧手续费（基点）
	FeeBps int64 `json:"feeBps"`
}

// Hop is one pool traversal of a route.
type Hop struct {
	PoolID    uint64   `json:"poolId"`
	AssetIn   string   `json:"assetIn"`
	AssetOut  string   `json:"assetOut"`
	AmountIn  *big.Int `json:"amountIn"`
	AmountOut *big.Int `json:"amountOut"`

	// FeeAmount 该跳从输入侧扣除的手续费（以该跳输入资产计）
	FeeAmount *big.Int `json:"feeAmount"`
}

// Route is the best path found for a swap.
type Route struct {
	Hops      []Hop    `json:"hops"`
	AmountIn  *big.Int `json:"amountIn"`
	AmountOut *big.Int `json:"amountOut"`

	// PriceImpact is the relative deviation of the realized average price
	// from the pre-trade marginal price along the path, in [0, 1].
	PriceImpact decimal.Decimal `json:"priceImpact"`

	// AggregateFeeRate 路径综合费率 1 - Π(1 - fee_i)
	AggregateFeeRate decimal.Decimal `json:"aggregateFeeRate"`
}
