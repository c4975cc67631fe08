package fixedpoint

import (
	"lukechampine.com/uint128"
)

// FeeGrowthScale: fee growth is a monotone-modulo-2^128 counter at 10^28.
const FeeGrowthScale = 28

// FeeGrowth only ever uses wrapping arithmetic: it is a modular counter,
// and only differences between two snapshots carry meaning.
type FeeGrowth struct{ v uint128.Uint128 }

func NewFeeGrowth(raw uint128.Uint128) FeeGrowth { return FeeGrowth{raw} }

func FeeGrowthFromInteger(n uint64) FeeGrowth {
	return FeeGrowth{uint128.From64(n).Mul(feeGrowthOne)}
}

func FeeGrowthFromScale(value uint64, scale int) FeeGrowth {
	return FeeGrowth{scaleTo(uint128.From64(value), scale, FeeGrowthScale)}
}

func (f FeeGrowth) Raw() uint128.Uint128   { return f.v }
func (f FeeGrowth) IsZero() bool           { return f.v.IsZero() }
func (f FeeGrowth) Cmp(o FeeGrowth) int    { return f.v.Cmp(o.v) }
func (f FeeGrowth) String() string         { return f.v.String() }
func (f FeeGrowth) Equal(o FeeGrowth) bool { return f.v.Equals(o.v) }

func (f FeeGrowth) UncheckedAdd(o FeeGrowth) FeeGrowth { return FeeGrowth{f.v.AddWrap(o.v)} }
func (f FeeGrowth) UncheckedSub(o FeeGrowth) FeeGrowth { return FeeGrowth{f.v.SubWrap(o.v)} }

// FromFee derives the per-unit-liquidity fee growth contributed by fee
// over liquidity L: floor(fee << (FeeGrowthScale+LiquidityScale) / L),
// i.e. fee expressed at token-amount scale widened into fee-growth scale
// before dividing by the in-range liquidity.
func FeeGrowthFromFee(l Liquidity, fee TokenAmount) (FeeGrowth, error) {
	if l.IsZero() {
		return FeeGrowth{}, nil
	}
	v, err := bigMulMulDiv(fee.v, feeGrowthOne, liquidityOne, l.v)
	return FeeGrowth{v}, err
}

// ToFee is the inverse of FromFee: floor(f * L / (feeGrowthOne *
// liquidityOne)), the token amount a position is owed for accruing f
// over liquidity L.
func (f FeeGrowth) ToFee(l Liquidity) (TokenAmount, error) {
	v, err := bigMulDiv(f.v, l.v, feeGrowthOne.Mul(liquidityOne))
	return TokenAmount{v}, err
}
