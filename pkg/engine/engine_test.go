package engine

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/events"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/storage"
	"soltrading/pkg/swap"
)

func newTestEngine(t *testing.T) (*Engine, solana.PublicKey, pool.PoolKey) {
	t.Helper()

	admin := solana.PublicKey{9}
	store := storage.NewMemStore()
	e := New(store, events.NewRecorder())
	e.Instantiate(admin, fixedpoint.Percentage{})

	feeTier, err := pool.NewFeeTier(fixedpoint.Percentage{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.AddFeeTier(admin, feeTier); err != nil {
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
	if err := e.CreatePool(poolKey, initSqrtPrice, 0, 0, solana.PublicKey{7}); err != nil {
		t.Fatal(err)
	}

	return e, admin, poolKey
}

func TestCreatePoolRejectsUnregisteredFeeTier(t *testing.T) {
	store := storage.NewMemStore()
	e := New(store, events.NewRecorder())

	feeTier, err := pool.NewFeeTier(fixedpoint.Percentage{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	poolKey, err := pool.NewPoolKey(solana.PublicKey{1}, solana.PublicKey{2}, feeTier)
	if err != nil {
		t.Fatal(err)
	}
	sp, _ := clmmmath.SqrtPriceAtTick(0)

	err = e.CreatePool(poolKey, sp, 0, 0, solana.PublicKey{})
	if code, ok := clmmerr.CodeOf(err); !ok || code != clmmerr.FeeTierNotFound {
		t.Fatalf("got %v, want FeeTierNotFound", err)
	}
}

func TestCreatePositionThenRemove(t *testing.T) {
	e, _, poolKey := newTestEngine(t)
	owner := solana.PublicKey{5}

	pos, x, y, err := e.CreatePosition(owner, poolKey, -10, 10, fixedpoint.LiquidityFromInteger(1_000_000), fixedpoint.MinSqrtPrice, fixedpoint.MaxSqrtPrice, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if x.IsZero() && y.IsZero() {
		t.Fatal("expected nonzero amounts deposited")
	}
	if pos.LowerTickIndex != -10 || pos.UpperTickIndex != 10 {
		t.Fatalf("unexpected position bounds: %+v", pos)
	}

	got, err := e.GetPosition(owner, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Liquidity.Equal(pos.Liquidity) {
		t.Errorf("stored position liquidity mismatch: %s vs %s", got.Liquidity, pos.Liquidity)
	}

	outX, outY, err := e.RemovePosition(owner, 0, poolKey, 0)
	if err != nil {
		t.Fatal(err)
	}
	if outX.IsZero() && outY.IsZero() {
		t.Fatal("expected nonzero amounts returned on removal")
	}

	if _, err := e.GetPosition(owner, 0); err == nil {
		t.Fatal("expected position to be gone after removal")
	}
}

func TestSwapThenWithdrawProtocolFee(t *testing.T) {
	e, _, poolKey := newTestEngine(t)
	owner := solana.PublicKey{5}

	_, _, _, err := e.CreatePosition(owner, poolKey, -1000, 1000, fixedpoint.LiquidityFromInteger(1_000_000_000), fixedpoint.MinSqrtPrice, fixedpoint.MaxSqrtPrice, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.Swap(poolKey, true, fixedpoint.TokenAmountFromInteger(1000), true, fixedpoint.MinSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.AmountOut.IsZero() {
		t.Fatal("expected nonzero swap output")
	}

	wrongCaller := solana.PublicKey{42}
	if _, _, err := e.WithdrawProtocolFee(wrongCaller, poolKey); err == nil {
		t.Fatal("expected Unauthorized for non-fee-receiver")
	}

	_, _, err = e.WithdrawProtocolFee(solana.PublicKey{7}, poolKey)
	if err != nil {
		t.Fatal(err)
	}
}

func TestQuoteRouteDoesNotMutateStore(t *testing.T) {
	e, _, poolKey := newTestEngine(t)
	owner := solana.PublicKey{5}
	if _, _, _, err := e.CreatePosition(owner, poolKey, -1000, 1000, fixedpoint.LiquidityFromInteger(1_000_000_000), fixedpoint.MinSqrtPrice, fixedpoint.MaxSqrtPrice, 0, 0); err != nil {
		t.Fatal(err)
	}

	before, _ := e.GetPool(poolKey)

	hops := []swap.Hop{{PoolKey: poolKey, XToY: true}}
	out, err := e.QuoteRoute(hops, fixedpoint.TokenAmountFromInteger(1000), 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.IsZero() {
		t.Fatal("expected nonzero quoted output")
	}

	after, _ := e.GetPool(poolKey)
	if !after.SqrtPrice.Equal(before.SqrtPrice) {
		t.Fatal("QuoteRoute must not mutate stored pool state")
	}
}
