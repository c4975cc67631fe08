package swap

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/storage"
)

func newTestPool(t *testing.T) (*storage.MemStore, pool.PoolKey) {
	t.Helper()

	feeTier, err := pool.NewFeeTier(fixedpoint.Percentage{}, 1)
	if err != nil {
		t.Fatal(err)
	}

	tokenA := solana.PublicKey{1}
	tokenB := solana.PublicKey{2}
	poolKey, err := pool.NewPoolKey(tokenA, tokenB, feeTier)
	if err != nil {
		t.Fatal(err)
	}

	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(0)
	if err != nil {
		t.Fatal(err)
	}

	pl, err := pool.Create(initSqrtPrice, 0, 0, 1, solana.PublicKey{})
	if err != nil {
		t.Fatal(err)
	}
	pl.Liquidity = fixedpoint.LiquidityFromInteger(1_000_000_000)

	store := storage.NewMemStore()
	store.SavePool(poolKey.Key(), pl)
	store.SaveConfig(storage.Config{ProtocolFee: fixedpoint.Percentage{}})

	return store, poolKey
}

func TestSwapMovesPriceAndPersists(t *testing.T) {
	store, poolKey := newTestPool(t)

	before, _ := store.GetPool(poolKey.Key())

	amount := fixedpoint.TokenAmountFromInteger(1000)
	res, err := Swap(store, 0, poolKey, true, amount, true, fixedpoint.MinSqrtPrice)
	if err != nil {
		t.Fatal(err)
	}
	if res.AmountOut.IsZero() {
		t.Fatal("expected nonzero amount out")
	}
	if res.AmountIn.Cmp(amount) != 0 {
		t.Errorf("amount_in = %s, want %s", res.AmountIn, amount)
	}

	after, ok := store.GetPool(poolKey.Key())
	if !ok {
		t.Fatal("pool missing after swap")
	}
	if after.SqrtPrice.Cmp(before.SqrtPrice) >= 0 {
		t.Errorf("expected sqrt_price to decrease for x_to_y swap, before=%s after=%s", before.SqrtPrice, after.SqrtPrice)
	}
	if !after.SqrtPrice.Equal(res.TargetSqrtPrice) {
		t.Errorf("stored pool price %s does not match result's target %s", after.SqrtPrice, res.TargetSqrtPrice)
	}
}

func TestQuoteDoesNotPersist(t *testing.T) {
	store, poolKey := newTestPool(t)
	before, _ := store.GetPool(poolKey.Key())

	amount := fixedpoint.TokenAmountFromInteger(1000)
	res, err := Quote(store, 0, poolKey, true, amount, true, fixedpoint.MinSqrtPrice)
	if err != nil {
		t.Fatal(err)
	}
	if res.AmountOut.IsZero() {
		t.Fatal("expected nonzero amount out")
	}

	after, _ := store.GetPool(poolKey.Key())
	if !after.SqrtPrice.Equal(before.SqrtPrice) {
		t.Errorf("quote must not mutate stored pool: before=%s after=%s", before.SqrtPrice, after.SqrtPrice)
	}
}

func TestSwapRejectsZeroAmount(t *testing.T) {
	store, poolKey := newTestPool(t)
	_, err := Swap(store, 0, poolKey, true, fixedpoint.TokenAmount{}, true, fixedpoint.MinSqrtPrice)
	if err == nil {
		t.Fatal("expected AmountIsZero")
	}
	if code, ok := clmmerr.CodeOf(err); !ok || code != clmmerr.AmountIsZero {
		t.Errorf("got code %v, want AmountIsZero", code)
	}
}

func TestSwapRejectsWrongLimitDirection(t *testing.T) {
	store, poolKey := newTestPool(t)
	// x_to_y swaps require sqrt_price_limit below the pool's current
	// price; MaxSqrtPrice is on the wrong side.
	_, err := Swap(store, 0, poolKey, true, fixedpoint.TokenAmountFromInteger(1000), true, fixedpoint.MaxSqrtPrice)
	if err == nil {
		t.Fatal("expected WrongLimit")
	}
	if code, ok := clmmerr.CodeOf(err); !ok || code != clmmerr.WrongLimit {
		t.Errorf("got code %v, want WrongLimit", code)
	}
}

func TestSwapRouteAppliesMinimumOut(t *testing.T) {
	store, poolKey := newTestPool(t)
	amount := fixedpoint.TokenAmountFromInteger(1000)

	hops := []Hop{{PoolKey: poolKey, XToY: true}}
	_, err := SwapRoute(store, 0, hops, amount, fixedpoint.MaxTokenAmount)
	if err == nil {
		t.Fatal("expected AmountUnderMinimumAmountOut")
	}
	if code, ok := clmmerr.CodeOf(err); !ok || code != clmmerr.AmountUnderMinimumAmountOut {
		t.Errorf("got code %v, want AmountUnderMinimumAmountOut", code)
	}
}
