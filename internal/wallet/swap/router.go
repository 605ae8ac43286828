package swap

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultMaxHops bounds path enumeration when the caller has no preference.
const DefaultMaxHops = 3

type edge struct {
	pool     *Pool
	assetIn  string
	assetOut string
}

// FindRoute enumerates simple paths from one asset to another across the
// pool set, at most maxHops pools long, and returns the path with the
// highest output. Ties prefer fewer hops. A nil route with nil error means
// no path connects the assets within the bound — a normal negative result.
// 在跳数限制内枚举简单路径,返回产出最高的路径
func FindRoute(pools []Pool, from, to string, amountIn *big.Int, maxHops int) (*Route, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, errors.New("swap amount must be positive")
	}
	if from == to {
		return nil, errors.New("source and destination assets are identical")
	}
	if maxHops < 1 {
		return nil, errors.Errorf("max hops must be at least 1, got %d", maxHops)
	}

	// adjacency in input order keeps the search deterministic
	adjacency := make(map[string][]edge)
	for i := range pools {
		p := &pools[i]
		adjacency[p.AssetA] = append(adjacency[p.AssetA], edge{pool: p, assetIn: p.AssetA, assetOut: p.AssetB})
		adjacency[p.AssetB] = append(adjacency[p.AssetB], edge{pool: p, assetIn: p.AssetB, assetOut: p.AssetA})
	}

	search := &routeSearch{
		to:        to,
		maxHops:   maxHops,
		adjacency: adjacency,
	}
	search.visit(from, amountIn, nil, nil, map[string]bool{from: true})

	if search.best == nil {
		return nil, nil
	}

	amountOut := search.best[len(search.best)-1].AmountOut

	return &Route{
		Hops:             search.best,
		AmountIn:         new(big.Int).Set(amountIn),
		AmountOut:        new(big.Int).Set(amountOut),
		PriceImpact:      priceImpact(search.bestEdges, amountIn, amountOut),
		AggregateFeeRate: aggregateFeeRate(search.bestEdges),
	}, nil
}

type routeSearch struct {
	to        string
	maxHops   int
	adjacency map[string][]edge

	best      []Hop
	bestEdges []edge
}

func (s *routeSearch) visit(asset string, amount *big.Int, hops []Hop, path []edge, visited map[string]bool) {
	if asset == s.to && len(hops) > 0 {
		s.record(hops, path)
		return
	}
	if len(hops) == s.maxHops {
		return
	}

	for _, e := range s.adjacency[asset] {
		if visited[e.assetOut] {
			continue
		}

		hop, ok := traverse(e, amount)
		if !ok {
			continue
		}

		visited[e.assetOut] = true
		s.visit(e.assetOut, hop.AmountOut, append(hops, hop), append(path, e), visited)
		delete(visited, e.assetOut)
	}
}

func (s *routeSearch) record(hops []Hop, path []edge) {
	out := hops[len(hops)-1].AmountOut

	if s.best != nil {
		bestOut := s.best[len(s.best)-1].AmountOut
		if cmp := out.Cmp(bestOut); cmp < 0 || (cmp == 0 && len(hops) >= len(s.best)) {
			return
		}
	}

	s.best = make([]Hop, len(hops))
	copy(s.best, hops)
	s.bestEdges = make([]edge, len(path))
	copy(s.bestEdges, path)
}

// traverse applies the constant-product formula with the fee taken from the
// input side, integer floor at both steps. Pools with an empty side are not
// viable, nor are hops whose output rounds to zero.
func traverse(e edge, amountIn *big.Int) (Hop, bool) {
	reserveIn, reserveOut, ok := reserves(e)
	if !ok {
		return Hop{}, false
	}

	if e.pool.FeeBps < 0 || e.pool.FeeBps >= bpsDenominator {
		return Hop{}, false
	}

	inAfterFee := new(big.Int).Mul(amountIn, big.NewInt(bpsDenominator-e.pool.FeeBps))
	inAfterFee.Quo(inAfterFee, big.NewInt(bpsDenominator))

	fee := new(big.Int).Sub(amountIn, inAfterFee)

	// out = inAfterFee * reserveOut / (reserveIn + inAfterFee)
	numerator := new(big.Int).Mul(inAfterFee, reserveOut)
	denominator := new(big.Int).Add(reserveIn, inAfterFee)
	out := new(big.Int).Quo(numerator, denominator)

	if out.Sign() <= 0 {
		return Hop{}, false
	}

	return Hop{
		PoolID:    e.pool.ID,
		AssetIn:   e.assetIn,
		AssetOut:  e.assetOut,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: out,
		FeeAmount: fee,
	}, true
}

func reserves(e edge) (*big.Int, *big.Int, bool) {
	var reserveIn, reserveOut *big.Int
	if e.assetIn == e.pool.AssetA {
		reserveIn, reserveOut = e.pool.ReserveA, e.pool.ReserveB
	} else {
		reserveIn, reserveOut = e.pool.ReserveB, e.pool.ReserveA
	}

	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, nil, false
	}

	return reserveIn, reserveOut, true
}

// priceImpact is the relative deviation of the realized average price from
// the pre-trade marginal price: the product of every hop's fee-adjusted
// spot price. Simple paths touch each pool once, so the configured reserves
// are the pre-trade reserves.
func priceImpact(path []edge, amountIn, amountOut *big.Int) decimal.Decimal {
	marginal := decimal.NewFromInt(1)
	for _, e := range path {
		reserveIn, reserveOut, ok := reserves(e)
		if !ok {
			return decimal.Zero
		}

		spot := decimal.NewFromBigInt(reserveOut, 0).Div(decimal.NewFromBigInt(reserveIn, 0))
		marginal = marginal.Mul(spot).Mul(feeKeepRatio(e.pool.FeeBps))
	}

	if marginal.IsZero() {
		return decimal.Zero
	}

	realized := decimal.NewFromBigInt(amountOut, 0).Div(decimal.NewFromBigInt(amountIn, 0))

	impact := marginal.Sub(realized).Div(marginal)
	if impact.IsNegative() {
		return decimal.Zero
	}

	return impact
}

// aggregateFeeRate is 1 - Π(1 - fee_i) across the route's pools.
func aggregateFeeRate(path []edge) decimal.Decimal {
	keep := decimal.NewFromInt(1)
	for _, e := range path {
		keep = keep.Mul(feeKeepRatio(e.pool.FeeBps))
	}

	return decimal.NewFromInt(1).Sub(keep)
}

func feeKeepRatio(feeBps int64) decimal.Decimal {
	return decimal.NewFromInt(bpsDenominator - feeBps).
		Div(decimal.NewFromInt(bpsDenominator))
}
