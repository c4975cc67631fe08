package clmmmath

import "soltrading/pkg/fixedpoint"

// TickFeeGrowth is the minimal tick view fee-growth-inside needs: the
// index and the two fee-growth-outside accumulators.
type TickFeeGrowth struct {
	Index             int32
	FeeGrowthOutsideX fixedpoint.FeeGrowth
	FeeGrowthOutsideY fixedpoint.FeeGrowth
}

// FeeGrowthInside computes the fee growth accrued while price sat inside
// [lower, upper) given the pool's current tick and global fee growth,
// using wrapping subtraction throughout.
func FeeGrowthInside(lower, upper TickFeeGrowth, currentTick int32, fgGlobalX, fgGlobalY fixedpoint.FeeGrowth) (fixedpoint.FeeGrowth, fixedpoint.FeeGrowth) {
	var belowX, belowY fixedpoint.FeeGrowth
	if currentTick >= lower.Index {
		belowX = lower.FeeGrowthOutsideX
		belowY = lower.FeeGrowthOutsideY
	} else {
		belowX = fgGlobalX.UncheckedSub(lower.FeeGrowthOutsideX)
		belowY = fgGlobalY.UncheckedSub(lower.FeeGrowthOutsideY)
	}

	var aboveX, aboveY fixedpoint.FeeGrowth
	if currentTick < upper.Index {
		aboveX = upper.FeeGrowthOutsideX
		aboveY = upper.FeeGrowthOutsideY
	} else {
		aboveX = fgGlobalX.UncheckedSub(upper.FeeGrowthOutsideX)
		aboveY = fgGlobalY.UncheckedSub(upper.FeeGrowthOutsideY)
	}

	insideX := fgGlobalX.UncheckedSub(belowX).UncheckedSub(aboveX)
	insideY := fgGlobalY.UncheckedSub(belowY).UncheckedSub(aboveY)
	return insideX, insideY
}
