package clmmmath

import (
	"math"
	"math/big"

	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/fixedpoint"
)

const floatPrec = 300

var ratioBase = new(big.Float).SetPrec(floatPrec).SetRat(big.NewRat(10001, 10000))
var scaleFactor = new(big.Float).SetPrec(floatPrec).SetInt(pow10Big(fixedpoint.SqrtPriceScale))

func pow10Big(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ratioAtAbsTick computes 1.0001^absTick by exponentiation by squaring
// in a high-precision float domain.
func ratioAtAbsTick(absTick int32) *big.Float {
	result := new(big.Float).SetPrec(floatPrec).SetInt64(1)
	square := new(big.Float).SetPrec(floatPrec).Set(ratioBase)
	n := absTick
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, square)
		}
		square.Mul(square, square)
		n >>= 1
	}
	return result
}

// SqrtPriceAtTick computes sqrt_price(i) = 1.0001^(i/2) at SqrtPrice
// scale, validating the result against [MinSqrtPrice, MaxSqrtPrice].
func SqrtPriceAtTick(tick int32) (fixedpoint.SqrtPrice, error) {
	if tick < MinTick || tick > MaxTick {
		return fixedpoint.SqrtPrice{}, clmmerr.New(clmmerr.InvalidTickIndex, "tick out of bounds")
	}
	abs := tick
	if abs < 0 {
		abs = -abs
	}
	ratio := ratioAtAbsTick(abs)
	sqrtRatio := new(big.Float).SetPrec(floatPrec).Sqrt(ratio)
	if tick < 0 {
		one := new(big.Float).SetPrec(floatPrec).SetInt64(1)
		sqrtRatio = one.Quo(one, sqrtRatio)
	}
	scaled := new(big.Float).SetPrec(floatPrec).Mul(sqrtRatio, scaleFactor)
	scaled.Add(scaled, big.NewFloat(0.5))
	intVal, _ := scaled.Int(nil)
	if intVal.Sign() < 0 || intVal.BitLen() > 128 {
		return fixedpoint.SqrtPrice{}, clmmerr.New(clmmerr.SqrtPriceOutOfRange, "sqrt price computation overflowed 128 bits")
	}
	sp := fixedpoint.NewSqrtPrice(uint128.FromBig(intVal))
	// The exact value at MaxTick lands slightly above the MaxSqrtPrice
	// constant; the top of the lattice maps to the constant itself.
	if tick == MaxTick && sp.Cmp(fixedpoint.MaxSqrtPrice) > 0 {
		sp = fixedpoint.MaxSqrtPrice
	}
	if err := sp.CheckRange(); err != nil {
		return fixedpoint.SqrtPrice{}, err
	}
	return sp, nil
}

// TickAtSqrtPrice inverts SqrtPriceAtTick: finds the tick T such that
// sqrt_price(T) <= sqrtPrice < sqrt_price(T+1), then snaps T to the
// nearest usable multiple of spacing — downward when xToY, upward
// otherwise.
func TickAtSqrtPrice(sqrtPrice fixedpoint.SqrtPrice, spacing uint16, xToY bool) (int32, error) {
	if err := sqrtPrice.CheckRange(); err != nil {
		return 0, err
	}
	guess := floatLogGuess(sqrtPrice)
	tick, err := refineTick(sqrtPrice, guess)
	if err != nil {
		return 0, err
	}
	return snapToSpacing(tick, spacing, xToY), nil
}

// floatLogGuess gives a float64-precision initial estimate of the tick
// via the closed-form log relation; refineTick corrects any rounding
// error against the exact big.Float computation.
func floatLogGuess(sqrtPrice fixedpoint.SqrtPrice) int32 {
	ratioFloat := new(big.Float).SetPrec(floatPrec).SetInt(sqrtPrice.Raw().Big())
	ratioFloat.Quo(ratioFloat, scaleFactor)
	f64, _ := ratioFloat.Float64()
	if f64 <= 0 {
		return MinTick
	}
	guess := 2 * math.Log(f64) / math.Log(1.0001)
	g := int32(math.Floor(guess))
	if g < MinTick {
		g = MinTick
	}
	if g > MaxTick {
		g = MaxTick
	}
	return g
}

func refineTick(sqrtPrice fixedpoint.SqrtPrice, guess int32) (int32, error) {
	const maxWalk = 8
	tick := guess
	for i := 0; i < maxWalk*2+1; i++ {
		lo, err := SqrtPriceAtTick(tick)
		if err != nil {
			// clamp search within bounds
			if tick <= MinTick {
				tick++
				continue
			}
			tick--
			continue
		}
		var hi fixedpoint.SqrtPrice
		if tick+1 <= MaxTick {
			hi, err = SqrtPriceAtTick(tick + 1)
			if err != nil {
				return 0, err
			}
		} else {
			hi = fixedpoint.MaxSqrtPrice
			hi, _ = hi.Add(fixedpoint.SqrtPriceFromInteger(1))
		}
		switch {
		case sqrtPrice.Cmp(lo) < 0:
			tick--
		case tick+1 <= MaxTick && sqrtPrice.Cmp(hi) >= 0:
			tick++
		default:
			return tick, nil
		}
	}
	return 0, clmmerr.New(clmmerr.SqrtPriceOutOfRange, "tick_at_sqrt_price failed to converge")
}

func snapToSpacing(tick int32, spacing uint16, xToY bool) int32 {
	s := int32(spacing)
	if s <= 1 {
		return tick
	}
	rem := tick % s
	if rem == 0 {
		return tick
	}
	if xToY {
		if tick < 0 {
			return tick - (s + rem)
		}
		return tick - rem
	}
	if tick < 0 {
		return tick - rem
	}
	return tick + (s - rem)
}
