package fixedpoint

import (
	"math/big"

	"lukechampine.com/uint128"
)

func pow10(n int) uint128.Uint128 {
	b := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	return uint128.FromBig(b)
}

var (
	percentageOne = pow10(12)
	fixedPointOne = pow10(12)
	liquidityOne  = pow10(6)
	sqrtPriceOne  = pow10(24)
	feeGrowthOne  = pow10(28)
	tokenAmountOne = uint128.From64(1)
)

// scaleTo rescales v from srcScale decimal places to dstScale decimal
// places, truncating toward zero on a scale-down.
func scaleTo(v uint128.Uint128, srcScale, dstScale int) uint128.Uint128 {
	if srcScale == dstScale {
		return v
	}
	if dstScale > srcScale {
		return v.Mul(pow10(dstScale - srcScale))
	}
	return v.Div(pow10(srcScale - dstScale))
}
