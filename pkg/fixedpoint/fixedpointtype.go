package fixedpoint

import (
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
)

// FixedPointScale mirrors PercentageScale: a generic scale-1e12
// fractional value used outside the percentage domain (e.g. the
// multiplier Liquidity.BigMul/BigMulUp take).
const FixedPointScale = 12

type FixedPoint struct{ v uint128.Uint128 }

func NewFixedPoint(raw uint64) FixedPoint { return FixedPoint{uint128.From64(raw)} }

func FixedPointFromInteger(n uint64) FixedPoint {
	return FixedPoint{uint128.From64(n).Mul(fixedPointOne)}
}

func FixedPointFromScale(value uint64, scale int) FixedPoint {
	return FixedPoint{scaleTo(uint128.From64(value), scale, FixedPointScale)}
}

func (f FixedPoint) Raw() uint128.Uint128 { return f.v }
func (f FixedPoint) IsZero() bool         { return f.v.IsZero() }
func (f FixedPoint) Cmp(o FixedPoint) int { return f.v.Cmp(o.v) }
func (f FixedPoint) String() string       { return f.v.String() }

func (f FixedPoint) Add(o FixedPoint) (FixedPoint, error) {
	v, err := checkedAdd(clmmerr.Add, f.v, o.v)
	return FixedPoint{v}, err
}

func (f FixedPoint) Sub(o FixedPoint) (FixedPoint, error) {
	v, err := checkedSub(clmmerr.Sub, f.v, o.v)
	return FixedPoint{v}, err
}

func (f FixedPoint) BigMul(rhs FixedPoint) (FixedPoint, error) {
	v, err := bigMulDiv(f.v, rhs.v, fixedPointOne)
	return FixedPoint{v}, err
}

func (f FixedPoint) BigMulUp(rhs FixedPoint) (FixedPoint, error) {
	v, err := bigMulDivUp(f.v, rhs.v, fixedPointOne)
	return FixedPoint{v}, err
}

func (f FixedPoint) BigDiv(rhs FixedPoint) (FixedPoint, error) {
	v, err := bigMulDiv(f.v, fixedPointOne, rhs.v)
	return FixedPoint{v}, err
}

func (f FixedPoint) BigDivUp(rhs FixedPoint) (FixedPoint, error) {
	v, err := bigMulDivUp(f.v, fixedPointOne, rhs.v)
	return FixedPoint{v}, err
}
