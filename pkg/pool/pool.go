package pool

import (
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/tick"

	"github.com/gagliardetto/solana-go"
)

// Pool is the per-PoolKey accounting record: current price/tick, active
// liquidity, global fee-growth accumulators and the protocol's
// not-yet-withdrawn fee balances.
type Pool struct {
	Liquidity        fixedpoint.Liquidity
	SqrtPrice        fixedpoint.SqrtPrice
	CurrentTickIndex int32
	FeeGrowthGlobalX fixedpoint.FeeGrowth
	FeeGrowthGlobalY fixedpoint.FeeGrowth
	FeeProtocolTokenX fixedpoint.TokenAmount
	FeeProtocolTokenY fixedpoint.TokenAmount
	StartTimestamp   uint64
	LastTimestamp    uint64
	FeeReceiver      solana.PublicKey
}

// Create validates that initSqrtPrice actually falls in initTick's price
// bucket at the given spacing and returns a freshly seeded pool.
func Create(initSqrtPrice fixedpoint.SqrtPrice, initTick int32, currentTimestamp uint64, tickSpacing uint16, feeReceiver solana.PublicKey) (Pool, error) {
	bucket, err := clmmmath.TickAtSqrtPrice(initSqrtPrice, tickSpacing, true)
	if err != nil {
		return Pool{}, clmmerr.Wrap(clmmerr.InvalidInitTick, "invalid init tick", err)
	}
	if bucket != initTick {
		return Pool{}, clmmerr.New(clmmerr.InvalidInitSqrtPrice, "init_sqrt_price does not belong to init_tick's bucket")
	}

	return Pool{
		SqrtPrice:        initSqrtPrice,
		CurrentTickIndex: initTick,
		StartTimestamp:   currentTimestamp,
		LastTimestamp:    currentTimestamp,
		FeeReceiver:      feeReceiver,
	}, nil
}

// AddFee splits amount into a protocol cut (rounded up) and a pool cut,
// distributing the pool cut across current liquidity as fee growth and
// accruing the protocol cut for later withdrawal.
func (p *Pool) AddFee(amount fixedpoint.TokenAmount, inX bool, protocolFee fixedpoint.Percentage) error {
	protocolCut, err := amount.ScaleByPercentage(protocolFee, true)
	if err != nil {
		return err
	}
	poolCut, err := amount.Sub(protocolCut)
	if err != nil {
		return err
	}

	if (poolCut.IsZero() && protocolCut.IsZero()) || p.Liquidity.IsZero() {
		return nil
	}

	growth, err := fixedpoint.FeeGrowthFromFee(p.Liquidity, poolCut)
	if err != nil {
		return err
	}

	if inX {
		p.FeeGrowthGlobalX = p.FeeGrowthGlobalX.UncheckedAdd(growth)
		p.FeeProtocolTokenX, err = p.FeeProtocolTokenX.Add(protocolCut)
	} else {
		p.FeeGrowthGlobalY = p.FeeGrowthGlobalY.UncheckedAdd(growth)
		p.FeeProtocolTokenY, err = p.FeeProtocolTokenY.Add(protocolCut)
	}
	return err
}

// amountDelta computes the token amounts a liquidity change of
// magnitude l over [lowerTick, upperTick] requires, against the pool's
// current price, and whether pool.liquidity itself should move (only
// when the position is currently in range).
func amountDelta(currentTick int32, currentSqrtPrice fixedpoint.SqrtPrice, l fixedpoint.Liquidity, roundUp bool, upperTick, lowerTick int32) (x, y fixedpoint.TokenAmount, updateLiquidity bool, err error) {
	lowerPrice, err := clmmmath.SqrtPriceAtTick(lowerTick)
	if err != nil {
		return
	}
	upperPrice, err := clmmmath.SqrtPriceAtTick(upperTick)
	if err != nil {
		return
	}

	switch {
	case currentTick < lowerTick:
		x, err = clmmmath.DeltaX(lowerPrice, upperPrice, l, roundUp)
	case currentTick < upperTick:
		x, err = clmmmath.DeltaX(currentSqrtPrice, upperPrice, l, roundUp)
		if err != nil {
			return
		}
		y, err = clmmmath.DeltaY(lowerPrice, currentSqrtPrice, l, roundUp)
		updateLiquidity = true
	default:
		y, err = clmmmath.DeltaY(lowerPrice, upperPrice, l, roundUp)
	}
	return
}

// UpdateLiquidity computes the token amounts a liquidity_delta over
// [lowerTick, upperTick] requires and, when the position is currently
// in range, applies delta to pool.liquidity.
func (p *Pool) UpdateLiquidity(liquidityDelta fixedpoint.Liquidity, sign bool, upperTick, lowerTick int32) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	x, y, shouldUpdate, err := amountDelta(p.CurrentTickIndex, p.SqrtPrice, liquidityDelta, sign, upperTick, lowerTick)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	if shouldUpdate {
		if sign {
			p.Liquidity, err = p.Liquidity.Add(liquidityDelta)
			if err != nil {
				return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.Wrap(clmmerr.UpdateLiquidityPlusOverflow, "pool liquidity add overflow", err)
			}
		} else {
			p.Liquidity, err = p.Liquidity.Sub(liquidityDelta)
			if err != nil {
				return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.Wrap(clmmerr.UpdateLiquidityMinusOverflow, "pool liquidity sub underflow", err)
			}
		}
	}

	return x, y, nil
}

// TickUpdateKind tags which variant of the reference's UpdatePoolTick
// enum the caller is presenting to UpdateTick.
type TickUpdateKind int

const (
	NoTick TickUpdateKind = iota
	TickInitialized
	TickUninitialized
)

// TickUpdate mirrors the reference UpdatePoolTick enum: either there was
// no limiting tick this step, the limiting tick is a stored, initialized
// Tick, or it is a bare index at the search-range edge.
type TickUpdate struct {
	Kind  TickUpdateKind
	Tick  tick.Tick
	Index int32
}

// UpdateTick is invoked once per swap step after the price has already
// moved to result.NextSqrtPrice. It decides whether the step actually
// reached a tick boundary and, if so, whether to cross it, mutating
// pool.current_tick_index (and, via tick.Cross, pool.liquidity)
// accordingly.
func (p *Pool) UpdateTick(nextSqrtPrice, swapLimit fixedpoint.SqrtPrice, tu *TickUpdate, remainingAmount fixedpoint.TokenAmount, byAmountIn, xToY bool, currentTimestamp uint64, protocolFee fixedpoint.Percentage, feeTier FeeTier) (amountToAdd fixedpoint.TokenAmount, newRemaining fixedpoint.TokenAmount, crossed bool, crossedTick tick.Tick, err error) {
	newRemaining = remainingAmount

	if tu.Kind == NoTick || !swapLimit.Equal(nextSqrtPrice) {
		p.CurrentTickIndex, err = clmmmath.TickAtSqrtPrice(nextSqrtPrice, feeTier.TickSpacing, xToY)
		return
	}

	enoughToCross, err := isEnoughAmountToChangePrice(remainingAmount, nextSqrtPrice, p.Liquidity, feeTier.Fee, byAmountIn, xToY)
	if err != nil {
		return
	}

	var tickIndex int32
	switch tu.Kind {
	case TickInitialized:
		t := tu.Tick
		if !xToY || enoughToCross {
			pv := tick.PoolView{
				CurrentTickIndex: p.CurrentTickIndex,
				Liquidity:        p.Liquidity,
				FeeGrowthGlobalX: p.FeeGrowthGlobalX,
				FeeGrowthGlobalY: p.FeeGrowthGlobalY,
				StartTimestamp:   p.StartTimestamp,
			}
			var res tick.CrossResult
			res, err = tick.Cross(t, pv, currentTimestamp)
			if err != nil {
				return
			}
			t.FeeGrowthOutsideX = res.FeeGrowthOutsideX
			t.FeeGrowthOutsideY = res.FeeGrowthOutsideY
			t.SecondsOutside = res.SecondsOutside
			p.Liquidity = res.NewLiquidity
			p.LastTimestamp = currentTimestamp
			crossed = true
			crossedTick = t
		} else if !remainingAmount.IsZero() {
			// The residual becomes fee only when by_amount_in; otherwise it
			// is zeroed without accruing to anyone.
			if byAmountIn {
				if err = p.AddFee(remainingAmount, xToY, protocolFee); err != nil {
					return
				}
				amountToAdd = remainingAmount
			}
			newRemaining = fixedpoint.TokenAmount{}
		}
		tickIndex = t.Index
	case TickUninitialized:
		tickIndex = tu.Index
	}

	if xToY && enoughToCross {
		p.CurrentTickIndex = tickIndex - int32(feeTier.TickSpacing)
	} else {
		p.CurrentTickIndex = tickIndex
	}

	return
}

// isEnoughAmountToChangePrice reports whether what's left of the swap
// after this step (net of fee, when by_amount_in) would move price by at
// least the smallest representable sqrt-price increment if the step
// loop kept going from next_sqrt_price — the dust filter that decides
// whether hitting a tick boundary exactly is a real crossing or a
// rounding artifact that should instead be folded into fee.
//
// No retrievable reference body survives for is_enough_amount_to_cross
// (see the clmmmath package doc comment on the missing math sources); this
// recomputes the threshold directly via delta-x/delta-y for one raw
// sqrt-price unit at the pool's current liquidity.
func isEnoughAmountToChangePrice(remaining fixedpoint.TokenAmount, nextSqrtPrice fixedpoint.SqrtPrice, liquidity fixedpoint.Liquidity, fee fixedpoint.Percentage, byAmountIn, xToY bool) (bool, error) {
	if remaining.IsZero() || liquidity.IsZero() {
		return false, nil
	}

	netRemaining := remaining
	if byAmountIn {
		complement, err := fee.Complement()
		if err != nil {
			return false, err
		}
		netRemaining, err = remaining.ScaleByPercentage(complement, false)
		if err != nil {
			return false, err
		}
	}

	oneUnit := fixedpoint.NewSqrtPrice(uint128.From64(1))
	adjacent, err := nextSqrtPrice.Add(oneUnit)
	if err != nil {
		return false, err
	}

	var threshold fixedpoint.TokenAmount
	if xToY {
		threshold, err = clmmmath.DeltaX(adjacent, nextSqrtPrice, liquidity, true)
	} else {
		threshold, err = clmmmath.DeltaY(nextSqrtPrice, adjacent, liquidity, true)
	}
	if err != nil {
		return false, err
	}

	return netRemaining.Cmp(threshold) >= 0, nil
}

// WithdrawProtocolFee atomically zeros and returns the accrued protocol
// fee balances.
func (p *Pool) WithdrawProtocolFee() (fixedpoint.TokenAmount, fixedpoint.TokenAmount) {
	x, y := p.FeeProtocolTokenX, p.FeeProtocolTokenY
	p.FeeProtocolTokenX = fixedpoint.TokenAmount{}
	p.FeeProtocolTokenY = fixedpoint.TokenAmount{}
	return x, y
}
