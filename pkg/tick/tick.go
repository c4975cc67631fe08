// Package tick models a single initialized tick: its net/gross liquidity
// and the fee-growth/seconds snapshots recorded "outside" of it, plus the
// state transitions a tick undergoes as price crosses it or as liquidity
// is added/removed at its boundary.
//
// Ported from original_source/wasm/storage/tick.rs and the Tick::update
// logic referenced (but not retained in the retrieval pack) from
// storage/position.rs's calculate_max_liquidity_per_tick call site.
package tick

import (
	"soltrading/pkg/clmmerr"
	"soltrading/pkg/fixedpoint"
)

// Tick is the per-index accounting record the tickmap bitmap flags as
// initialized.
type Tick struct {
	Index              int32
	Sign                bool
	LiquidityChange     fixedpoint.Liquidity
	LiquidityGross      fixedpoint.Liquidity
	SqrtPrice           fixedpoint.SqrtPrice
	FeeGrowthOutsideX   fixedpoint.FeeGrowth
	FeeGrowthOutsideY   fixedpoint.FeeGrowth
	SecondsOutside      uint64
}

// New builds the zero-liquidity tick a fresh initialization starts from:
// fee growth outside is seeded with the pool's current global growth when
// the tick sits at or below the pool's current price, and zero otherwise
// (so that FeeGrowthInside nets out correctly regardless of which side of
// current price the tick was created on).
func New(index int32, sqrtPrice fixedpoint.SqrtPrice, poolCurrentTick int32, fgGlobalX, fgGlobalY fixedpoint.FeeGrowth, currentTimestamp uint64) Tick {
	t := Tick{
		Index:     index,
		SqrtPrice: sqrtPrice,
	}
	if poolCurrentTick >= index {
		t.FeeGrowthOutsideX = fgGlobalX
		t.FeeGrowthOutsideY = fgGlobalY
	}
	return t
}

// Update applies a liquidity_delta at this tick boundary: upper marks
// whether this tick is the upper bound of the position being
// added/removed (liquidity_net decreases when crossed upward from an
// upper tick, and vice versa for a lower tick), and add distinguishes
// adding from removing liquidity.
func (t *Tick) Update(liquidityDelta fixedpoint.Liquidity, maxLiquidityPerTick fixedpoint.Liquidity, upper bool, add bool) error {
	if liquidityDelta.IsZero() && t.LiquidityGross.IsZero() {
		return nil
	}

	var newGross fixedpoint.Liquidity
	var err error
	if add {
		newGross, err = t.LiquidityGross.Add(liquidityDelta)
	} else {
		newGross, err = t.LiquidityGross.Sub(liquidityDelta)
	}
	if err != nil {
		return clmmerr.Wrap(clmmerr.TickAddLiquidityOverflow, "tick liquidity_gross update failed", err)
	}
	if newGross.Cmp(maxLiquidityPerTick) > 0 {
		return clmmerr.New(clmmerr.InvalidTickLiquidity, "liquidity_gross exceeds max_liquidity_per_tick")
	}

	// net liquidity flips sign relative to stored (sign, liquidity_change)
	// representation when the combination of (upper, add) calls for
	// subtracting from the current net rather than adding to it.
	signUpdate := add != upper
	if t.LiquidityGross.IsZero() {
		t.Sign = signUpdate
		t.LiquidityChange = liquidityDelta
	} else if t.Sign == signUpdate {
		t.LiquidityChange, err = t.LiquidityChange.Add(liquidityDelta)
		if err != nil {
			return clmmerr.Wrap(clmmerr.TickAddLiquidityOverflow, "tick liquidity_change update failed", err)
		}
	} else if t.LiquidityChange.Cmp(liquidityDelta) > 0 {
		t.LiquidityChange, err = t.LiquidityChange.Sub(liquidityDelta)
		if err != nil {
			return clmmerr.Wrap(clmmerr.TickRemoveLiquidityUnderflow, "tick liquidity_change update failed", err)
		}
	} else {
		t.LiquidityChange, err = liquidityDelta.Sub(t.LiquidityChange)
		if err != nil {
			return clmmerr.Wrap(clmmerr.TickRemoveLiquidityUnderflow, "tick liquidity_change update failed", err)
		}
		t.Sign = signUpdate
	}

	t.LiquidityGross = newGross
	return nil
}

// PoolView is the slice of pool state Cross reads and mutates, kept
// narrow so the tick package never imports pool (pool imports tick).
type PoolView struct {
	CurrentTickIndex int32
	Liquidity        fixedpoint.Liquidity
	FeeGrowthGlobalX fixedpoint.FeeGrowth
	FeeGrowthGlobalY fixedpoint.FeeGrowth
	StartTimestamp   uint64
}

// CrossResult carries the pool liquidity/timestamp/fee-growth-outside
// mutations Cross computes, applied by the caller onto the real Pool.
type CrossResult struct {
	NewLiquidity      fixedpoint.Liquidity
	FeeGrowthOutsideX fixedpoint.FeeGrowth
	FeeGrowthOutsideY fixedpoint.FeeGrowth
	SecondsOutside    uint64
}

// Cross flips the fee-growth-outside and seconds-outside accumulators
// and computes the pool's post-cross liquidity, mutating neither t nor
// pool directly (the caller commits CrossResult after a successful
// Cross, matching the two-phase commit calculate_swap/update_tick use so
// a reverted swap never partially mutates stored state).
func Cross(t Tick, pool PoolView, currentTimestamp uint64) (CrossResult, error) {
	if currentTimestamp < pool.StartTimestamp {
		return CrossResult{}, clmmerr.New(clmmerr.Sub, "current_timestamp - pool.start_timestamp underflow")
	}
	secondsPassed := currentTimestamp - pool.StartTimestamp
	res := CrossResult{
		FeeGrowthOutsideX: pool.FeeGrowthGlobalX.UncheckedSub(t.FeeGrowthOutsideX),
		FeeGrowthOutsideY: pool.FeeGrowthGlobalY.UncheckedSub(t.FeeGrowthOutsideY),
		SecondsOutside:    secondsPassed - t.SecondsOutside,
	}

	var err error
	if (pool.CurrentTickIndex >= t.Index) != t.Sign {
		res.NewLiquidity, err = pool.Liquidity.Add(t.LiquidityChange)
		if err != nil {
			return CrossResult{}, clmmerr.Wrap(clmmerr.Add, "pool.liquidity + tick.liquidity_change overflow", err)
		}
	} else {
		res.NewLiquidity, err = pool.Liquidity.Sub(t.LiquidityChange)
		if err != nil {
			return CrossResult{}, clmmerr.Wrap(clmmerr.Sub, "pool.liquidity - tick.liquidity_change underflow", err)
		}
	}

	return res, nil
}
