// Package pool implements the per-pair pool record: identity (PoolKey,
// FeeTier) and the fee/liquidity/tick-crossing state transitions a pool
// undergoes as swaps and liquidity operations execute against it.
//
// Ported from original_source/contracts/oraiswap-v3/src/storage/{pool_key,fee_tier,pool}.rs.
package pool

import (
	"soltrading/pkg/clmmerr"
	"soltrading/pkg/fixedpoint"
)

// FeeTier names one (fee, tick_spacing) combination pools may be created
// under. tick_spacing is restricted to [1, 100] and fee must not exceed
// 100%.
type FeeTier struct {
	Fee         fixedpoint.Percentage
	TickSpacing uint16
}

func NewFeeTier(fee fixedpoint.Percentage, tickSpacing uint16) (FeeTier, error) {
	if tickSpacing == 0 || tickSpacing > 100 {
		return FeeTier{}, clmmerr.New(clmmerr.InvalidTickSpacing, "tick_spacing must be in [1, 100]")
	}
	if fee.Cmp(fixedpoint.PercentageFromInteger(1)) > 0 {
		return FeeTier{}, clmmerr.New(clmmerr.InvalidFee, "fee must not exceed 100%")
	}
	return FeeTier{Fee: fee, TickSpacing: tickSpacing}, nil
}

// Key identifies a fee tier for storage and equality purposes.
type FeeTierKey struct {
	Fee         string
	TickSpacing uint16
}

func (f FeeTier) Key() FeeTierKey {
	return FeeTierKey{Fee: f.Fee.String(), TickSpacing: f.TickSpacing}
}
