// Package tickmap implements the sparse bitmap indexing initialized
// ticks: one bit per usable tick index, stored in 64-bit chunks keyed by
// chunk index, with bounded nearest-next/nearest-previous search.
//
// Ported from original_source/wasm/collections/tickmap.rs.
package tickmap

import (
	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
)

// Tickmap is a sparse chunk_index -> bitset mapping. The zero value is
// an empty tickmap.
type Tickmap struct {
	Bitmap map[uint16]uint64
}

func New() *Tickmap {
	return &Tickmap{Bitmap: make(map[uint16]uint64)}
}

// TickToPosition converts a tick index into its (chunk, bit) address.
// tick must be divisible by spacing and within [-MaxTick, MaxTick].
func TickToPosition(tick int32, spacing uint16) (chunk uint16, bit uint8, err error) {
	if tick < clmmmath.MinTick || tick > clmmmath.MaxTick {
		return 0, 0, clmmerr.New(clmmerr.InvalidTickIndex, "tick out of bounds")
	}
	if tick%int32(spacing) != 0 {
		return 0, 0, clmmerr.New(clmmerr.InvalidTickIndex, "tick not divisible by spacing")
	}
	bitmapIndex := (tick + clmmmath.MaxTick) / int32(spacing)
	return uint16(bitmapIndex / clmmmath.ChunkSize), uint8(bitmapIndex % clmmmath.ChunkSize), nil
}

// PositionToTick is the inverse of TickToPosition.
func PositionToTick(chunk uint16, bit uint8, spacing uint16) int32 {
	bitmapIndex := int32(chunk)*clmmmath.ChunkSize + int32(bit)
	return bitmapIndex*int32(spacing) - clmmmath.MaxTick
}

func (t *Tickmap) Get(tick int32, spacing uint16) (bool, error) {
	chunk, bit, err := TickToPosition(tick, spacing)
	if err != nil {
		return false, err
	}
	word := t.Bitmap[chunk]
	return word&(uint64(1)<<bit) != 0, nil
}

// Flip toggles the bit for tick, rejecting a flip that would leave the
// bit in the same state it was requested to move away from (a
// double-flip without an intervening opposite flip).
func (t *Tickmap) Flip(initializing bool, tick int32, spacing uint16) error {
	chunk, bit, err := TickToPosition(tick, spacing)
	if err != nil {
		return err
	}
	cur := t.Bitmap[chunk]&(uint64(1)<<bit) != 0
	if cur == initializing {
		return clmmerr.New(clmmerr.TickReInitialize, "tick already in requested init state")
	}
	t.Bitmap[chunk] ^= uint64(1) << bit
	return nil
}

func (t *Tickmap) IsEmptyChunk(chunk uint16) bool {
	return t.Bitmap[chunk] == 0
}

// getSearchLimit clamps a candidate search bound to both the tick
// lattice edge and the TickSearchRange window around `tick`.
func getSearchLimit(tick int32, spacing uint16, up bool) int32 {
	index := tick / int32(spacing)
	limit := clmmmath.MaxTick / int32(spacing)
	if up {
		boundary := index + clmmmath.TickSearchRange
		if boundary > limit {
			boundary = limit
		}
		return boundary * int32(spacing)
	}
	boundary := index - clmmmath.TickSearchRange
	if boundary < -limit {
		boundary = -limit
	}
	return boundary * int32(spacing)
}

// NextInitialized returns the smallest initialized tick strictly
// greater than from, bounded by TickSearchRange. ok is false when the
// search exhausted its bound without finding one, in which case tick is
// the search boundary itself (uninitialized).
func (t *Tickmap) NextInitialized(from int32, spacing uint16) (tick int32, ok bool) {
	limit := getSearchLimit(from, spacing, true)
	candidate := from + int32(spacing)
	if candidate > clmmmath.MaxTick {
		return limit, false
	}
	for candidate <= limit {
		chunk, bit, err := TickToPosition(candidate, spacing)
		if err != nil {
			break
		}
		word := t.Bitmap[chunk]
		if word != 0 {
			for b := bit; ; b++ {
				if word&(uint64(1)<<b) != 0 {
					found := PositionToTick(chunk, b, spacing)
					if found > limit {
						return limit, false
					}
					return found, true
				}
				if b == 63 {
					break
				}
			}
		}
		candidate = PositionToTick(chunk, 63, spacing) + int32(spacing)
	}
	return limit, false
}

// PrevInitialized is the symmetric counterpart of NextInitialized.
func (t *Tickmap) PrevInitialized(from int32, spacing uint16) (tick int32, ok bool) {
	limit := getSearchLimit(from, spacing, false)
	candidate := from - int32(spacing)
	if candidate < clmmmath.MinTick {
		return limit, false
	}
	for candidate >= limit {
		chunk, bit, err := TickToPosition(candidate, spacing)
		if err != nil {
			break
		}
		word := t.Bitmap[chunk]
		if word != 0 {
			for b := int(bit); b >= 0; b-- {
				if word&(uint64(1)<<uint(b)) != 0 {
					found := PositionToTick(chunk, uint8(b), spacing)
					if found < limit {
						return limit, false
					}
					return found, true
				}
			}
		}
		candidate = PositionToTick(chunk, 0, spacing) - int32(spacing)
	}
	return limit, false
}

// Limiter names the obstacle GetCloserLimit found in the requested
// direction: either an existing tick (Initialized true/false) or the
// search-range boundary (Tick holds that boundary, Initialized false,
// Found false).
type Limiter struct {
	Tick        int32
	Initialized bool
	Found       bool
}

// GetCloserLimit returns the nearest obstacle to price motion toward
// sqrtLimit in direction xToY from the pool's current tick: either the
// next/prev initialized tick's sqrt-price (clamped to sqrtLimit) or the
// search-range edge.
func (t *Tickmap) GetCloserLimit(sqrtLimit fixedpoint.SqrtPrice, xToY bool, current int32, spacing uint16) (fixedpoint.SqrtPrice, Limiter, error) {
	var candidateTick int32
	var found bool
	if xToY {
		candidateTick, found = t.PrevInitialized(current, spacing)
	} else {
		candidateTick, found = t.NextInitialized(current, spacing)
	}

	candidatePrice, err := clmmmath.SqrtPriceAtTick(candidateTick)
	if err != nil {
		return fixedpoint.SqrtPrice{}, Limiter{}, err
	}

	var bound fixedpoint.SqrtPrice
	var limiter Limiter
	if xToY {
		if candidatePrice.Cmp(sqrtLimit) <= 0 {
			bound = sqrtLimit
			limiter = Limiter{}
		} else {
			bound = candidatePrice
			limiter = Limiter{Tick: candidateTick, Initialized: found, Found: found}
		}
	} else {
		if candidatePrice.Cmp(sqrtLimit) >= 0 {
			bound = sqrtLimit
			limiter = Limiter{}
		} else {
			bound = candidatePrice
			limiter = Limiter{Tick: candidateTick, Initialized: found, Found: found}
		}
	}

	if current == candidateTick && !found {
		return fixedpoint.SqrtPrice{}, Limiter{}, clmmerr.New(clmmerr.TickLimitReached, "tick limit reached")
	}

	return bound, limiter, nil
}
