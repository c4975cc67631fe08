package pool

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmerr"
)

// PoolKey identifies a pool by its token pair and fee tier. TokenX is
// always the lexicographically smaller of the two mint addresses so
// that the two orderings a caller might supply hash to the same pool.
type PoolKey struct {
	TokenX  solana.PublicKey
	TokenY  solana.PublicKey
	FeeTier FeeTier
}

// NewPoolKey canonicalizes tokenA/tokenB into (TokenX, TokenY) order.
func NewPoolKey(tokenA, tokenB solana.PublicKey, feeTier FeeTier) (PoolKey, error) {
	if tokenA == tokenB {
		return PoolKey{}, clmmerr.New(clmmerr.TokensAreSame, "pool key tokens must differ")
	}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return PoolKey{TokenX: tokenA, TokenY: tokenB, FeeTier: feeTier}, nil
	}
	return PoolKey{TokenX: tokenB, TokenY: tokenA, FeeTier: feeTier}, nil
}

// Key returns the flattened storage key: token_x, token_y and the fee
// tier's own key concatenated, mirroring the reference's
// to_length_prefixed_nested encoding without the length-prefix framing
// (Go map keys don't need a parseable byte encoding, only a unique
// comparable one).
type Key struct {
	TokenX      solana.PublicKey
	TokenY      solana.PublicKey
	FeeTierKey  FeeTierKey
}

func (k PoolKey) Key() Key {
	return Key{TokenX: k.TokenX, TokenY: k.TokenY, FeeTierKey: k.FeeTier.Key()}
}
