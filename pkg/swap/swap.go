// Package swap implements the step loop that walks a pool's price
// across the tick lattice to fill a swap: the persisting, hard-erroring
// path used by Swap and SwapRoute, and the advisory, bounded-crossing
// path used by Quote and QuoteRoute.
//
// Ported from original_source/contracts/oraiswap-v3/src/entrypoints/common.rs
// (calculate_swap, swap_internal, route) and original_source/wasm/swap.rs
// (simulate_swap's MAX_TICK_CROSS cap, for the advisory path).
package swap

import (
	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/storage"
	"soltrading/pkg/tick"
)

// Result is the outcome of a completed swap or quote: the totals moved
// and the post-swap pool/ticks a persisting caller must write back.
type Result struct {
	AmountIn       fixedpoint.TokenAmount
	AmountOut      fixedpoint.TokenAmount
	StartSqrtPrice fixedpoint.SqrtPrice
	TargetSqrtPrice fixedpoint.SqrtPrice
	Fee            fixedpoint.TokenAmount
	Pool           pool.Pool
	CrossedTicks   []tick.Tick
}

// run is the shared step loop: advisory callers pass a nonzero
// maxTickCross to bound how many ticks may be crossed before giving up
// (the reference's simulate_swap contract); persisting callers pass 0
// for "unbounded", matching calculate_swap's hard error on exhausting
// the tick lattice instead.
func run(store storage.Store, currentTimestamp uint64, poolKey pool.PoolKey, xToY bool, amount fixedpoint.TokenAmount, byAmountIn bool, sqrtPriceLimit fixedpoint.SqrtPrice, maxTickCross int) (Result, error) {
	if amount.IsZero() {
		return Result{}, clmmerr.New(clmmerr.AmountIsZero, "swap amount must be nonzero")
	}

	key := poolKey.Key()
	pl, err := storage.RequirePool(store, key)
	if err != nil {
		return Result{}, err
	}

	if xToY {
		if pl.SqrtPrice.Cmp(sqrtPriceLimit) <= 0 || sqrtPriceLimit.Cmp(fixedpoint.MaxSqrtPrice) > 0 {
			return Result{}, clmmerr.New(clmmerr.WrongLimit, "sqrt_price_limit invalid for x_to_y swap")
		}
	} else {
		if pl.SqrtPrice.Cmp(sqrtPriceLimit) >= 0 || sqrtPriceLimit.Cmp(fixedpoint.MinSqrtPrice) < 0 {
			return Result{}, clmmerr.New(clmmerr.WrongLimit, "sqrt_price_limit invalid for y_to_x swap")
		}
	}

	spacing := poolKey.FeeTier.TickSpacing
	tickLimit := clmmmath.GetMinTick(spacing)
	if !xToY {
		tickLimit = clmmmath.GetMaxTick(spacing)
	}

	tm := store.GetTickmap(key)

	remaining := amount
	var totalIn, totalOut, totalFee fixedpoint.TokenAmount
	startSqrtPrice := pl.SqrtPrice
	var crossed []tick.Tick

	for !remaining.IsZero() {
		if maxTickCross > 0 && len(crossed) >= maxTickCross {
			break
		}

		swapBound, limiter, err := tm.GetCloserLimit(sqrtPriceLimit, xToY, pl.CurrentTickIndex, spacing)
		if err != nil {
			return Result{}, err
		}

		step, err := clmmmath.ComputeSwapStep(pl.SqrtPrice, swapBound, pl.Liquidity, remaining, byAmountIn, poolKey.FeeTier.Fee)
		if err != nil {
			return Result{}, err
		}

		if byAmountIn {
			consumed, err := step.AmountIn.Add(step.FeeAmount)
			if err != nil {
				return Result{}, err
			}
			remaining, err = remaining.Sub(consumed)
			if err != nil {
				return Result{}, err
			}
		} else {
			remaining, err = remaining.Sub(step.AmountOut)
			if err != nil {
				return Result{}, err
			}
		}

		protocolFee := fixedpoint.Percentage{}
		if cfg, ok := store.GetConfig(); ok {
			protocolFee = cfg.ProtocolFee
		}
		if err := pl.AddFee(step.FeeAmount, xToY, protocolFee); err != nil {
			return Result{}, err
		}
		totalFee, err = totalFee.Add(step.FeeAmount)
		if err != nil {
			return Result{}, err
		}

		pl.SqrtPrice = step.NextSqrtPrice

		inPlusFee, err := step.AmountIn.Add(step.FeeAmount)
		if err != nil {
			return Result{}, err
		}
		totalIn, err = totalIn.Add(inPlusFee)
		if err != nil {
			return Result{}, err
		}
		totalOut, err = totalOut.Add(step.AmountOut)
		if err != nil {
			return Result{}, err
		}

		if pl.SqrtPrice.Equal(sqrtPriceLimit) && !remaining.IsZero() {
			return Result{}, clmmerr.New(clmmerr.PriceLimitReached, "price reached the supplied limit with amount still remaining")
		}

		var tu pool.TickUpdate
		if swapBound.Equal(sqrtPriceLimit) {
			tu = pool.TickUpdate{Kind: pool.NoTick}
		} else if limiter.Initialized {
			t, err := storage.RequireTick(store, storage.TickKey{Pool: key, Index: limiter.Tick})
			if err != nil {
				return Result{}, err
			}
			tu = pool.TickUpdate{Kind: pool.TickInitialized, Tick: t}
		} else {
			tu = pool.TickUpdate{Kind: pool.TickUninitialized, Index: limiter.Tick}
		}

		amountToAdd, newRemaining, didCross, crossedTick, err := pl.UpdateTick(step.NextSqrtPrice, swapBound, &tu, remaining, byAmountIn, xToY, currentTimestamp, protocolFee, poolKey.FeeTier)
		if err != nil {
			return Result{}, err
		}
		remaining = newRemaining
		totalIn, err = totalIn.Add(amountToAdd)
		if err != nil {
			return Result{}, err
		}

		if didCross {
			crossed = append(crossed, crossedTick)
		}

		reachedLimit := pl.CurrentTickIndex <= tickLimit
		if !xToY {
			reachedLimit = pl.CurrentTickIndex >= tickLimit
		}
		if reachedLimit {
			return Result{}, clmmerr.New(clmmerr.TickLimitReached, "swap reached the edge of the tick lattice")
		}
	}

	if totalOut.IsZero() {
		return Result{}, clmmerr.New(clmmerr.NoGainSwap, "swap produced no output")
	}

	return Result{
		AmountIn:        totalIn,
		AmountOut:       totalOut,
		StartSqrtPrice:  startSqrtPrice,
		TargetSqrtPrice: pl.SqrtPrice,
		Fee:             totalFee,
		Pool:            pl,
		CrossedTicks:    crossed,
	}, nil
}

// Swap executes calculate_swap and persists the result: the crossed
// ticks and the pool itself are written back to store.
func Swap(store storage.Store, currentTimestamp uint64, poolKey pool.PoolKey, xToY bool, amount fixedpoint.TokenAmount, byAmountIn bool, sqrtPriceLimit fixedpoint.SqrtPrice) (Result, error) {
	res, err := run(store, currentTimestamp, poolKey, xToY, amount, byAmountIn, sqrtPriceLimit, 0)
	if err != nil {
		return Result{}, err
	}

	key := poolKey.Key()
	for _, t := range res.CrossedTicks {
		store.SaveTick(storage.TickKey{Pool: key, Index: t.Index}, t)
	}
	store.SavePool(key, res.Pool)

	return res, nil
}

// Quote runs the same step loop without persisting anything, capped at
// MaxTickCross crossings (the reference's advisory-path limit): once that
// many ticks are crossed the loop stops and the totals filled so far are
// returned without an error. Every other failure errors as in Swap.
func Quote(store storage.Store, currentTimestamp uint64, poolKey pool.PoolKey, xToY bool, amount fixedpoint.TokenAmount, byAmountIn bool, sqrtPriceLimit fixedpoint.SqrtPrice) (Result, error) {
	return run(store, currentTimestamp, poolKey, xToY, amount, byAmountIn, sqrtPriceLimit, clmmmath.MaxTickCross)
}

// Hop is one leg of a multi-pool route.
type Hop struct {
	PoolKey pool.PoolKey
	XToY    bool
}

// Route executes swaps sequentially is the direction each hop's
// amount_out feeds the next hop's amount_in (always by_amount_in=true),
// returning the final amount out. persist selects between Swap (real
// execution) and Quote (a dry-run projection).
func Route(store storage.Store, currentTimestamp uint64, hops []Hop, amountIn fixedpoint.TokenAmount, persist bool) (fixedpoint.TokenAmount, error) {
	next := amountIn
	for _, hop := range hops {
		limit := fixedpoint.MaxSqrtPrice
		if hop.XToY {
			limit = fixedpoint.MinSqrtPrice
		}

		var res Result
		var err error
		if persist {
			res, err = Swap(store, currentTimestamp, hop.PoolKey, hop.XToY, next, true, limit)
		} else {
			res, err = Quote(store, currentTimestamp, hop.PoolKey, hop.XToY, next, true, limit)
		}
		if err != nil {
			return fixedpoint.TokenAmount{}, err
		}
		next = res.AmountOut
	}
	return next, nil
}

// SwapRoute is Route(persist=true) with a caller-supplied minimum
// acceptable output.
func SwapRoute(store storage.Store, currentTimestamp uint64, hops []Hop, amountIn, minOut fixedpoint.TokenAmount) (fixedpoint.TokenAmount, error) {
	out, err := Route(store, currentTimestamp, hops, amountIn, true)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	if out.Cmp(minOut) < 0 {
		return fixedpoint.TokenAmount{}, clmmerr.New(clmmerr.AmountUnderMinimumAmountOut, "route output below the supplied minimum")
	}
	return out, nil
}

// QuoteRoute is Route(persist=false): a projection of a multi-hop swap.
func QuoteRoute(store storage.Store, currentTimestamp uint64, hops []Hop, amountIn fixedpoint.TokenAmount) (fixedpoint.TokenAmount, error) {
	return Route(store, currentTimestamp, hops, amountIn, false)
}
