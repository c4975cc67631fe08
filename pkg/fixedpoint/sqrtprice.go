package fixedpoint

import (
	"math/big"

	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
)

// SqrtPriceScale: sqrt(price) is represented at 10^24.
const SqrtPriceScale = 24

// MinSqrtPrice and MaxSqrtPrice bound every valid SqrtPrice value,
// taken verbatim from the reference contract's consts module.
var (
	MinSqrtPrice = SqrtPrice{mustUint128("15258932000000000000")}
	MaxSqrtPrice = SqrtPrice{mustUint128("65535383934512647000000000000")}
)

func mustUint128(dec string) uint128.Uint128 {
	b, ok := new(big.Int).SetString(dec, 10)
	if !ok {
		panic("fixedpoint: bad constant " + dec)
	}
	return uint128.FromBig(b)
}

type SqrtPrice struct{ v uint128.Uint128 }

func NewSqrtPrice(raw uint128.Uint128) SqrtPrice { return SqrtPrice{raw} }

func SqrtPriceFromInteger(n uint64) SqrtPrice {
	return SqrtPrice{uint128.From64(n).Mul(sqrtPriceOne)}
}

func SqrtPriceFromScale(value uint64, scale int) SqrtPrice {
	return SqrtPrice{scaleTo(uint128.From64(value), scale, SqrtPriceScale)}
}

func (s SqrtPrice) Raw() uint128.Uint128 { return s.v }
func (s SqrtPrice) IsZero() bool         { return s.v.IsZero() }
func (s SqrtPrice) Cmp(o SqrtPrice) int  { return s.v.Cmp(o.v) }
func (s SqrtPrice) String() string       { return s.v.String() }
func (s SqrtPrice) Equal(o SqrtPrice) bool { return s.v.Equals(o.v) }

// InRange reports whether s lies within [MinSqrtPrice, MaxSqrtPrice].
func (s SqrtPrice) InRange() bool {
	return s.Cmp(MinSqrtPrice) >= 0 && s.Cmp(MaxSqrtPrice) <= 0
}

func (s SqrtPrice) CheckRange() error {
	if !s.InRange() {
		return clmmerr.New(clmmerr.SqrtPriceOutOfRange, "sqrt price "+s.String()+" out of range")
	}
	return nil
}

func (s SqrtPrice) Add(o SqrtPrice) (SqrtPrice, error) {
	v, err := checkedAdd(clmmerr.Add, s.v, o.v)
	return SqrtPrice{v}, err
}

func (s SqrtPrice) Sub(o SqrtPrice) (SqrtPrice, error) {
	v, err := checkedSub(clmmerr.Sub, s.v, o.v)
	return SqrtPrice{v}, err
}

// Max returns the larger of s and o (ties return s).
func Max(s, o SqrtPrice) SqrtPrice {
	if s.Cmp(o) >= 0 {
		return s
	}
	return o
}

// Min returns the smaller of s and o (ties return s).
func Min(s, o SqrtPrice) SqrtPrice {
	if s.Cmp(o) <= 0 {
		return s
	}
	return o
}
