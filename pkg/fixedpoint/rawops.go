package fixedpoint

import "lukechampine.com/uint128"

// Pow10 exposes the package's scale-constant builder for callers (such
// as pkg/clmmmath) that need to combine two differently-scaled values in
// a single widened operation and cannot express the result as one of the
// six named types directly.
func Pow10(n int) uint128.Uint128 { return pow10(n) }

// RawMulDiv computes floor(a*b/denom), or the macro's round-up variant
// when roundUp is true, directly on raw 128-bit magnitudes. It backs
// mixed-scale combinators (delta-x, delta-y) that don't belong to any
// single named decimal type.
func RawMulDiv(a, b, denom uint128.Uint128, roundUp bool) (uint128.Uint128, error) {
	if roundUp {
		return bigMulDivUp(a, b, denom)
	}
	return bigMulDiv(a, b, denom)
}
