package clmmmath

import (
	"math/big"

	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/fixedpoint"
)

// SwapStepResult is the outcome of one compute_swap_step call: how far
// price moved and what was consumed/produced/collected as fee along the
// way.
type SwapStepResult struct {
	NextSqrtPrice fixedpoint.SqrtPrice
	AmountIn      fixedpoint.TokenAmount
	AmountOut     fixedpoint.TokenAmount
	FeeAmount     fixedpoint.TokenAmount
}

// ComputeSwapStep integrates price/liquidity/fee over a single step of
// the swap loop, from current toward target (a bound supplied by the
// tickmap search), consuming at most `remaining` of the amount the swap
// is denominated in.
//
// No reference body for this function survives in the retrieval pack
// (see the package doc comment); it is implemented directly from the
// amount <-> sqrt-price relations in delta.go, solving the inverse
// relation in exact rational arithmetic when a step doesn't fully reach
// its bound.
func ComputeSwapStep(current, target fixedpoint.SqrtPrice, liquidity fixedpoint.Liquidity, remaining fixedpoint.TokenAmount, byAmountIn bool, fee fixedpoint.Percentage) (SwapStepResult, error) {
	xToY := current.Cmp(target) >= 0

	complement, err := fee.Complement()
	if err != nil {
		return SwapStepResult{}, err
	}

	var nextPrice fixedpoint.SqrtPrice
	var full bool

	if byAmountIn {
		remainingLessFee, err := remaining.ScaleByPercentage(complement, false)
		if err != nil {
			return SwapStepResult{}, err
		}
		var maxIn fixedpoint.TokenAmount
		if xToY {
			maxIn, err = DeltaX(target, current, liquidity, true)
		} else {
			maxIn, err = DeltaY(target, current, liquidity, true)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		if remainingLessFee.Cmp(maxIn) >= 0 {
			nextPrice, full = target, true
		} else {
			nextPrice, err = nextSqrtPriceFromInput(current, liquidity, remainingLessFee, xToY)
			if err != nil {
				return SwapStepResult{}, err
			}
		}
	} else {
		var maxOut fixedpoint.TokenAmount
		if xToY {
			maxOut, err = DeltaY(target, current, liquidity, false)
		} else {
			maxOut, err = DeltaX(target, current, liquidity, false)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		if remaining.Cmp(maxOut) >= 0 {
			nextPrice, full = target, true
		} else {
			nextPrice, err = nextSqrtPriceFromOutput(current, liquidity, remaining, xToY)
			if err != nil {
				return SwapStepResult{}, err
			}
		}
	}

	var amountIn, amountOut fixedpoint.TokenAmount
	if xToY {
		amountIn, err = DeltaX(nextPrice, current, liquidity, true)
		if err != nil {
			return SwapStepResult{}, err
		}
		amountOut, err = DeltaY(nextPrice, current, liquidity, false)
		if err != nil {
			return SwapStepResult{}, err
		}
	} else {
		amountIn, err = DeltaY(nextPrice, current, liquidity, true)
		if err != nil {
			return SwapStepResult{}, err
		}
		amountOut, err = DeltaX(nextPrice, current, liquidity, false)
		if err != nil {
			return SwapStepResult{}, err
		}
	}

	var feeAmount fixedpoint.TokenAmount
	if byAmountIn && !full {
		feeAmount, err = remaining.Sub(amountIn)
		if err != nil {
			return SwapStepResult{}, err
		}
	} else {
		raw, err := fixedpoint.RawMulDiv(amountIn.Raw(), fee.Raw(), complement.Raw(), true)
		if err != nil {
			return SwapStepResult{}, err
		}
		feeAmount = fixedpoint.NewTokenAmount(raw)
	}

	return SwapStepResult{
		NextSqrtPrice: nextPrice,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     feeAmount,
	}, nil
}

func ratFromRaw(v uint128.Uint128, scale int) *big.Rat {
	return new(big.Rat).SetFrac(v.Big(), pow10Big(scale))
}

func rawFromRat(r *big.Rat, scale int, roundUp bool) (uint128.Uint128, error) {
	num := new(big.Int).Mul(r.Num(), pow10Big(scale))
	den := r.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if roundUp && rem.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Sign() < 0 || q.BitLen() > 128 {
		return uint128.Zero, clmmerr.New(clmmerr.Cast, "sqrt price inversion overflowed 128 bits")
	}
	return uint128.FromBig(q), nil
}

// nextSqrtPriceFromInput solves the delta-x/delta-y relation for the
// sqrt price that exactly consumes `amount` of the input side, rounding
// toward `current` (the conservative direction: the recomputed delta
// from this price never exceeds amount).
func nextSqrtPriceFromInput(current fixedpoint.SqrtPrice, l fixedpoint.Liquidity, amount fixedpoint.TokenAmount, xToY bool) (fixedpoint.SqrtPrice, error) {
	L := ratFromRaw(l.Raw(), fixedpoint.LiquidityScale)
	C := ratFromRaw(current.Raw(), fixedpoint.SqrtPriceScale)
	A := ratFromRaw(amount.Raw(), 0)

	var next *big.Rat
	if xToY {
		// Δx = L*(1/next - 1/current) = amount  =>  next = L*current/(L + amount*current)
		denom := new(big.Rat).Add(L, new(big.Rat).Mul(A, C))
		next = new(big.Rat).Quo(new(big.Rat).Mul(L, C), denom)
	} else {
		// Δy = L*(next - current) = amount  =>  next = current + amount/L
		next = new(big.Rat).Add(C, new(big.Rat).Quo(A, L))
	}
	raw, err := rawFromRat(next, fixedpoint.SqrtPriceScale, xToY)
	if err != nil {
		return fixedpoint.SqrtPrice{}, err
	}
	sp := fixedpoint.NewSqrtPrice(raw)
	return sp, sp.CheckRange()
}

// nextSqrtPriceFromOutput is the output-side analogue of
// nextSqrtPriceFromInput.
func nextSqrtPriceFromOutput(current fixedpoint.SqrtPrice, l fixedpoint.Liquidity, amount fixedpoint.TokenAmount, xToY bool) (fixedpoint.SqrtPrice, error) {
	L := ratFromRaw(l.Raw(), fixedpoint.LiquidityScale)
	C := ratFromRaw(current.Raw(), fixedpoint.SqrtPriceScale)
	A := ratFromRaw(amount.Raw(), 0)

	var next *big.Rat
	if xToY {
		// output is Y: Δy = L*(current - next) = amount => next = current - amount/L
		next = new(big.Rat).Sub(C, new(big.Rat).Quo(A, L))
	} else {
		// output is X: Δx = L*(next - current)/(current*next) = amount
		// => next = L*current/(L - amount*current)
		denom := new(big.Rat).Sub(L, new(big.Rat).Mul(A, C))
		next = new(big.Rat).Quo(new(big.Rat).Mul(L, C), denom)
	}
	raw, err := rawFromRat(next, fixedpoint.SqrtPriceScale, xToY)
	if err != nil {
		return fixedpoint.SqrtPrice{}, err
	}
	sp := fixedpoint.NewSqrtPrice(raw)
	return sp, sp.CheckRange()
}
