package clmmmath

import (
	"soltrading/pkg/fixedpoint"
)

// DeltaY computes L*(b-a) between two sqrt-prices under liquidity L,
// rounding up when roundUp is true (amount-in / adding liquidity) and
// down otherwise.
func DeltaY(sqrtA, sqrtB fixedpoint.SqrtPrice, l fixedpoint.Liquidity, roundUp bool) (fixedpoint.TokenAmount, error) {
	a, b := fixedpoint.Min(sqrtA, sqrtB), fixedpoint.Max(sqrtA, sqrtB)
	diff, err := b.Sub(a)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	denom := fixedpoint.Pow10(fixedpoint.LiquidityScale + fixedpoint.SqrtPriceScale)
	raw, err := fixedpoint.RawMulDiv(l.Raw(), diff.Raw(), denom, roundUp)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	return fixedpoint.NewTokenAmount(raw), nil
}

// DeltaX computes L*(b-a)/(a*b) between two sqrt-prices under liquidity
// L. Computed in two widened stages (L*diff/b, then that result * a
// fixed scale constant / a) rather than one four-term product, so each
// stage stays within the 256-bit widened domain.
func DeltaX(sqrtA, sqrtB fixedpoint.SqrtPrice, l fixedpoint.Liquidity, roundUp bool) (fixedpoint.TokenAmount, error) {
	a, b := fixedpoint.Min(sqrtA, sqrtB), fixedpoint.Max(sqrtA, sqrtB)
	diff, err := b.Sub(a)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	stage1, err := fixedpoint.RawMulDiv(l.Raw(), diff.Raw(), b.Raw(), roundUp)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	rescale := fixedpoint.Pow10(fixedpoint.SqrtPriceScale - fixedpoint.LiquidityScale)
	raw, err := fixedpoint.RawMulDiv(stage1, rescale, a.Raw(), roundUp)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	return fixedpoint.NewTokenAmount(raw), nil
}
