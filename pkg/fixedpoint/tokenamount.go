package fixedpoint

import (
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
)

// TokenAmount is a raw (scale-0) 128-bit integer amount of a token.
type TokenAmount struct{ v uint128.Uint128 }

func NewTokenAmount(raw uint128.Uint128) TokenAmount { return TokenAmount{raw} }

func TokenAmountFromInteger(n uint64) TokenAmount { return TokenAmount{uint128.From64(n)} }

// MaxTokenAmount is u128::MAX, the saturation point the reference test
// suite calls TokenAmount::max_instance().
var MaxTokenAmount = TokenAmount{uint128.Max}

func (t TokenAmount) Raw() uint128.Uint128   { return t.v }
func (t TokenAmount) IsZero() bool           { return t.v.IsZero() }
func (t TokenAmount) Cmp(o TokenAmount) int  { return t.v.Cmp(o.v) }
func (t TokenAmount) String() string         { return t.v.String() }
func (t TokenAmount) Equal(o TokenAmount) bool { return t.v.Equals(o.v) }

func (t TokenAmount) Add(o TokenAmount) (TokenAmount, error) {
	v, err := checkedAdd(clmmerr.Add, t.v, o.v)
	return TokenAmount{v}, err
}

func (t TokenAmount) Sub(o TokenAmount) (TokenAmount, error) {
	v, err := checkedSub(clmmerr.Sub, t.v, o.v)
	return TokenAmount{v}, err
}

func (t TokenAmount) Mul(o TokenAmount) (TokenAmount, error) {
	v, err := checkedMul(clmmerr.Mul, t.v, o.v)
	return TokenAmount{v}, err
}

// ScaleByPercentage computes floor(t * p) (or its round-up variant),
// i.e. t scaled by a fraction expressed at Percentage scale.
func (t TokenAmount) ScaleByPercentage(p Percentage, roundUp bool) (TokenAmount, error) {
	if roundUp {
		v, err := bigMulDivUp(t.v, p.v, percentageOne)
		return TokenAmount{v}, err
	}
	v, err := bigMulDiv(t.v, p.v, percentageOne)
	return TokenAmount{v}, err
}
