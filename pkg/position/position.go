// Package position implements a single liquidity position over
// [LowerTickIndex, UpperTickIndex): its own liquidity, the fee-growth
// snapshot it was last settled against, and the fee balance it has
// accrued but not yet claimed.
//
// Ported from original_source/contracts/oraiswap-v3/src/storage/position.rs.
package position

import (
	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/tick"
)

type Position struct {
	PoolKey         pool.PoolKey
	Liquidity       fixedpoint.Liquidity
	LowerTickIndex  int32
	UpperTickIndex  int32
	FeeGrowthInsideX fixedpoint.FeeGrowth
	FeeGrowthInsideY fixedpoint.FeeGrowth
	LastBlockNumber uint64
	TokensOwedX     fixedpoint.TokenAmount
	TokensOwedY     fixedpoint.TokenAmount
}

// Modify is the common core of Create/Remove/ClaimFee: it updates the
// bounding ticks' liquidity accounting, recomputes fee growth inside the
// position's range, settles any newly accrued fee into tokens_owed, and
// finally asks the pool to translate the liquidity change into token
// amounts (moving pool.liquidity itself only when the range is
// currently active).
func (p *Position) Modify(pl *pool.Pool, upperTick, lowerTick *tick.Tick, liquidityDelta fixedpoint.Liquidity, add bool, currentTimestamp uint64, tickSpacing uint16) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	pl.LastTimestamp = currentTimestamp

	maxPerTick := fixedpoint.MaxLiquidityPerTick(clmmmath.NumTicksInRange(tickSpacing))

	if err := lowerTick.Update(liquidityDelta, maxPerTick, false, add); err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	if err := upperTick.Update(liquidityDelta, maxPerTick, true, add); err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	fgInsideX, fgInsideY := clmmmath.FeeGrowthInside(
		clmmmath.TickFeeGrowth{Index: lowerTick.Index, FeeGrowthOutsideX: lowerTick.FeeGrowthOutsideX, FeeGrowthOutsideY: lowerTick.FeeGrowthOutsideY},
		clmmmath.TickFeeGrowth{Index: upperTick.Index, FeeGrowthOutsideX: upperTick.FeeGrowthOutsideX, FeeGrowthOutsideY: upperTick.FeeGrowthOutsideY},
		pl.CurrentTickIndex, pl.FeeGrowthGlobalX, pl.FeeGrowthGlobalY,
	)

	if err := p.update(add, liquidityDelta, fgInsideX, fgInsideY); err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	return pl.UpdateLiquidity(liquidityDelta, add, upperTick.Index, lowerTick.Index)
}

// update settles fees accrued since the position's last snapshot and
// applies the liquidity delta. Poking a zero-liquidity position with a
// zero delta (no-op) is rejected: fees may only be claimed while a
// position still holds liquidity.
func (p *Position) update(sign bool, liquidityDelta fixedpoint.Liquidity, fgInsideX, fgInsideY fixedpoint.FeeGrowth) error {
	if liquidityDelta.IsZero() && p.Liquidity.IsZero() {
		return clmmerr.New(clmmerr.EmptyPositionPokes, "cannot poke a zero-liquidity position")
	}

	owedX, err := fgInsideX.UncheckedSub(p.FeeGrowthInsideX).ToFee(p.Liquidity)
	if err != nil {
		return err
	}
	owedY, err := fgInsideY.UncheckedSub(p.FeeGrowthInsideY).ToFee(p.Liquidity)
	if err != nil {
		return err
	}

	newLiquidity, err := p.calculateNewLiquidity(sign, liquidityDelta)
	if err != nil {
		return err
	}

	p.Liquidity = newLiquidity
	p.FeeGrowthInsideX = fgInsideX
	p.FeeGrowthInsideY = fgInsideY

	p.TokensOwedX, err = p.TokensOwedX.Add(owedX)
	if err != nil {
		return err
	}
	p.TokensOwedY, err = p.TokensOwedY.Add(owedY)
	return err
}

func (p *Position) calculateNewLiquidity(sign bool, liquidityDelta fixedpoint.Liquidity) (fixedpoint.Liquidity, error) {
	if !sign && p.Liquidity.Cmp(liquidityDelta) < 0 {
		return fixedpoint.Liquidity{}, clmmerr.New(clmmerr.InsufficientLiquidity, "cannot remove more liquidity than the position holds")
	}
	if sign {
		v, err := p.Liquidity.Add(liquidityDelta)
		if err != nil {
			return fixedpoint.Liquidity{}, clmmerr.Wrap(clmmerr.PositionAddLiquidityOverflow, "position liquidity add overflow", err)
		}
		return v, nil
	}
	v, err := p.Liquidity.Sub(liquidityDelta)
	if err != nil {
		return fixedpoint.Liquidity{}, clmmerr.Wrap(clmmerr.PositionRemoveLiquidityUnderflow, "position liquidity sub underflow", err)
	}
	return v, nil
}

// ClaimFee settles accrued fees via a zero-delta Modify and zeros the
// owed balances, returning what was collected.
func (p *Position) ClaimFee(pl *pool.Pool, upperTick, lowerTick *tick.Tick, currentTimestamp uint64, tickSpacing uint16) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	if _, _, err := p.Modify(pl, upperTick, lowerTick, fixedpoint.Liquidity{}, true, currentTimestamp, tickSpacing); err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	x, y := p.TokensOwedX, p.TokensOwedY
	p.TokensOwedX = fixedpoint.TokenAmount{}
	p.TokensOwedY = fixedpoint.TokenAmount{}
	return x, y, nil
}

// Create opens a new position at zero liquidity and immediately grows
// it to liquidityDelta, validating the caller's slippage bounds against
// the pool's current price before doing so.
func Create(pl *pool.Pool, poolKey pool.PoolKey, lowerTick, upperTick *tick.Tick, currentTimestamp uint64, liquidityDelta fixedpoint.Liquidity, slippageLower, slippageUpper fixedpoint.SqrtPrice, blockNumber uint64, tickSpacing uint16) (Position, fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	if pl.SqrtPrice.Cmp(slippageLower) < 0 || pl.SqrtPrice.Cmp(slippageUpper) > 0 {
		return Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.New(clmmerr.PriceLimitReached, "pool price moved outside the supplied slippage bounds")
	}

	p := Position{
		PoolKey:        poolKey,
		LowerTickIndex: lowerTick.Index,
		UpperTickIndex: upperTick.Index,
		LastBlockNumber: blockNumber,
	}

	x, y, err := p.Modify(pl, upperTick, lowerTick, liquidityDelta, true, currentTimestamp, tickSpacing)
	if err != nil {
		return Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	return p, x, y, nil
}

// Remove closes out liquidityDelta (the position's full liquidity) and
// reports whether either bounding tick's liquidity_gross has returned to
// zero, in which case the caller must flip its tickmap bit and drop its
// stored record.
func (p *Position) Remove(pl *pool.Pool, currentTimestamp uint64, lowerTick, upperTick *tick.Tick, tickSpacing uint16) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, bool, bool, error) {
	liquidityDelta := p.Liquidity
	amountX, amountY, err := p.Modify(pl, upperTick, lowerTick, liquidityDelta, false, currentTimestamp, tickSpacing)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, false, false, err
	}

	amountX, err = amountX.Add(p.TokensOwedX)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, false, false, err
	}
	amountY, err = amountY.Add(p.TokensOwedY)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, false, false, err
	}

	return amountX, amountY, lowerTick.LiquidityGross.IsZero(), upperTick.LiquidityGross.IsZero(), nil
}
