// Package clmmmath implements the CLMM math kernel: sqrt-price <-> tick
// conversion, delta-x/delta-y between two sqrt-prices under a liquidity
// amount, the swap-step integrator, and fee-growth-inside accounting.
//
// sqrt_price_at_tick/tick_at_sqrt_price/compute_swap_step have no
// retrievable reference implementation in this port's source corpus (the
// upstream math/clamm.rs and math/log.rs bodies were never part of the
// retrieval pack, only their call sites were); they are implemented here
// directly from the closed-form relation sqrt_price(i) = 1.0001^(i/2),
// computed at arbitrary precision and rounded to the fixed-point scale,
// which is mathematically equivalent to the reference's binary
// decomposition table.
package clmmmath

// MaxTick and MinTick bound the usable tick lattice.
const (
	MaxTick = 221_818
	MinTick = -MaxTick
)

// TickSearchRange bounds next_initialized/prev_initialized scans.
const TickSearchRange = 256

// ChunkSize is the number of tickmap bit positions per stored chunk.
const ChunkSize = 64

// MaxTickCross bounds the quote-only (advisory) swap path's crossed-tick
// count; the persisting swap path has no such cap.
const MaxTickCross = 173

// GetMaxTick returns the largest usable tick divisible by spacing.
func GetMaxTick(spacing uint16) int32 {
	return (MaxTick / int32(spacing)) * int32(spacing)
}

// GetMinTick returns the smallest usable tick divisible by spacing.
func GetMinTick(spacing uint16) int32 {
	return -GetMaxTick(spacing)
}

// NumTicksInRange is the number of spacing-aligned tick slots in
// [GetMinTick(spacing), GetMaxTick(spacing)], the denominator
// fixedpoint.MaxLiquidityPerTick divides by.
func NumTicksInRange(spacing uint16) uint64 {
	return uint64(GetMaxTick(spacing)/int32(spacing))*2 + 1
}
