package fixedpoint

import (
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
)

// PercentageScale is the number of implied decimal places: 1.0 (100%) is
// represented as 10^12.
const PercentageScale = 12

// Percentage is a scale-1e12 fraction, valid over [0, 10^12] (0-100%).
type Percentage struct{ v uint128.Uint128 }

func NewPercentage(raw uint64) Percentage { return Percentage{uint128.From64(raw)} }

func PercentageFromInteger(n uint64) Percentage {
	return Percentage{uint128.From64(n).Mul(percentageOne)}
}

func PercentageFromScale(value uint64, scale int) Percentage {
	return Percentage{scaleTo(uint128.From64(value), scale, PercentageScale)}
}

func (p Percentage) Raw() uint128.Uint128 { return p.v }
func (p Percentage) IsZero() bool         { return p.v.IsZero() }
func (p Percentage) Cmp(o Percentage) int { return p.v.Cmp(o.v) }
func (p Percentage) String() string       { return p.v.String() }

func (p Percentage) Add(o Percentage) (Percentage, error) {
	v, err := checkedAdd(clmmerr.Add, p.v, o.v)
	return Percentage{v}, err
}

func (p Percentage) Sub(o Percentage) (Percentage, error) {
	v, err := checkedSub(clmmerr.Sub, p.v, o.v)
	return Percentage{v}, err
}

// BigMul computes floor(p * rhs / one(rhs-scale)), narrowed back to a
// Percentage.
func (p Percentage) BigMul(rhs Percentage) (Percentage, error) {
	v, err := bigMulDiv(p.v, rhs.v, percentageOne)
	return Percentage{v}, err
}

func (p Percentage) BigMulUp(rhs Percentage) (Percentage, error) {
	v, err := bigMulDivUp(p.v, rhs.v, percentageOne)
	return Percentage{v}, err
}

// Complement returns 1 - p (a Percentage must never exceed 1).
func (p Percentage) Complement() (Percentage, error) {
	return PercentageFromInteger(1).Sub(p)
}
