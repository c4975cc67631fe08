package fixedpoint

import (
	"math/big"

	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
)

// LiquidityScale: 1 unit of liquidity is represented as 10^6.
const LiquidityScale = 6

type Liquidity struct{ v uint128.Uint128 }

func NewLiquidity(raw uint128.Uint128) Liquidity { return Liquidity{raw} }

func LiquidityFromInteger(n uint64) Liquidity {
	return Liquidity{uint128.From64(n).Mul(liquidityOne)}
}

func LiquidityFromScale(value uint64, scale int) Liquidity {
	return Liquidity{scaleTo(uint128.From64(value), scale, LiquidityScale)}
}

func (l Liquidity) Raw() uint128.Uint128   { return l.v }
func (l Liquidity) IsZero() bool           { return l.v.IsZero() }
func (l Liquidity) Cmp(o Liquidity) int    { return l.v.Cmp(o.v) }
func (l Liquidity) String() string         { return l.v.String() }
func (l Liquidity) Equal(o Liquidity) bool { return l.v.Equals(o.v) }

func (l Liquidity) Add(o Liquidity) (Liquidity, error) {
	v, err := checkedAdd(clmmerr.ExtendLiquidityOverflow, l.v, o.v)
	return Liquidity{v}, err
}

func (l Liquidity) Sub(o Liquidity) (Liquidity, error) {
	v, err := checkedSub(clmmerr.TickRemoveLiquidityUnderflow, l.v, o.v)
	return Liquidity{v}, err
}

func (l Liquidity) BigMul(rhs FixedPoint) (Liquidity, error) {
	v, err := bigMulDiv(l.v, rhs.v, fixedPointOne)
	return Liquidity{v}, err
}

func (l Liquidity) BigMulUp(rhs FixedPoint) (Liquidity, error) {
	v, err := bigMulDivUp(l.v, rhs.v, fixedPointOne)
	return Liquidity{v}, err
}

// MaxLiquidityPerTick is floor(2*MaxLiquidity / numTicksInRange(spacing)),
// the per-tick cap Tick.Update rejects liquidity_gross against.
func MaxLiquidityPerTick(numTicksInRange uint64) Liquidity {
	doubled := new(big.Int).Mul(uint128.Max.Big(), big.NewInt(2))
	q := new(big.Int).Div(doubled, big.NewInt(int64(numTicksInRange)))
	if q.BitLen() > 128 {
		return Liquidity{uint128.Max}
	}
	return Liquidity{uint128.FromBig(q)}
}
