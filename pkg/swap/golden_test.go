package swap_test

// Golden-vector regressions reproducing the reference contract's own
// test suite bit-for-bit: original_source/contracts/oraiswap-v3/src/tests/
// {swap.rs, liquidity_gap.rs, swap_route.rs, max_tick_cross.rs}. Since
// clmmmath's sqrt-price/tick conversions and swap-step math have no
// retrieved Rust body to diff against directly, these literal values are
// the only real correctness check against the ground truth.

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmmath"
	"soltrading/pkg/engine"
	"soltrading/pkg/events"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/storage"
	"soltrading/pkg/swap"
)

func mustFeeGrowth(decimal string) fixedpoint.FeeGrowth {
	b, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		panic("swap_test: bad fee growth literal " + decimal)
	}
	return fixedpoint.NewFeeGrowth(uint128.FromBig(b))
}

var (
	admin = solana.PublicKey{0xad}
	alice = solana.PublicKey{0xa1}
	bob   = solana.PublicKey{0xb0}
)

func newTestEngine(protocolFee fixedpoint.Percentage) *engine.Engine {
	store := storage.NewMemStore()
	e := engine.New(store, events.NewRecorder())
	e.Instantiate(admin, protocolFee)
	return e
}

// TestGoldenSwapXToY reproduces swap.rs's test_swap_x_to_y.
func TestGoldenSwapXToY(t *testing.T) {
	protocolFee := fixedpoint.PercentageFromScale(6, 3)
	feeTier, err := pool.NewFeeTier(protocolFee, 10)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(protocolFee)
	if err := e.AddFeeTier(admin, feeTier); err != nil {
		t.Fatal(err)
	}

	initTick := int32(0)
	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(initTick)
	if err != nil {
		t.Fatal(err)
	}
	tokenX, tokenY := solana.PublicKey{1}, solana.PublicKey{2}
	poolKey := pool.PoolKey{TokenX: tokenX, TokenY: tokenY, FeeTier: feeTier}
	if err := e.CreatePool(poolKey, initSqrtPrice, initTick, 0, admin); err != nil {
		t.Fatal(err)
	}

	const lowerTickIndex, middleTickIndex, upperTickIndex = -20, -10, 10
	liquidityDelta := fixedpoint.LiquidityFromInteger(1000000)
	slippageLower := fixedpoint.NewSqrtPrice(uint128.Zero)
	slippageUpper := fixedpoint.MaxSqrtPrice

	if _, _, _, err := e.CreatePosition(alice, poolKey, lowerTickIndex, upperTickIndex, liquidityDelta, slippageLower, slippageUpper, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := e.CreatePosition(alice, poolKey, lowerTickIndex-20, middleTickIndex, liquidityDelta, slippageLower, slippageUpper, 0, 0); err != nil {
		t.Fatal(err)
	}

	pl, err := e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	if pl.Liquidity.Cmp(liquidityDelta) != 0 {
		t.Fatalf("pool.liquidity = %s, want %s", pl.Liquidity, liquidityDelta)
	}

	amount := fixedpoint.TokenAmountFromInteger(1000)
	quoted, err := e.Quote(poolKey, true, amount, true, fixedpoint.MinSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.Swap(poolKey, true, amount, true, quoted.TargetSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}

	wantOut := fixedpoint.TokenAmountFromInteger(990)
	if res.AmountIn.Cmp(amount) != 0 {
		t.Errorf("amount_in = %s, want %s", res.AmountIn, amount)
	}
	if res.AmountOut.Cmp(wantOut) != 0 {
		t.Errorf("amount_out = %s, want %s", res.AmountOut, wantOut)
	}

	pl, err = e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	if !pl.FeeGrowthGlobalY.IsZero() {
		t.Errorf("fee_growth_global_y = %s, want 0", pl.FeeGrowthGlobalY)
	}
	if want := mustFeeGrowth("40000000000000000000000"); !pl.FeeGrowthGlobalX.Equal(want) {
		t.Errorf("fee_growth_global_x = %s, want %s", pl.FeeGrowthGlobalX, want)
	}
	if !pl.FeeProtocolTokenY.IsZero() {
		t.Errorf("fee_protocol_token_y = %s, want 0", pl.FeeProtocolTokenY)
	}
	if want := fixedpoint.TokenAmountFromInteger(2); pl.FeeProtocolTokenX.Cmp(want) != 0 {
		t.Errorf("fee_protocol_token_x = %s, want %s", pl.FeeProtocolTokenX, want)
	}

	lower, err := e.GetTick(poolKey, lowerTickIndex)
	if err != nil {
		t.Fatal(err)
	}
	middle, err := e.GetTick(poolKey, middleTickIndex)
	if err != nil {
		t.Fatal(err)
	}
	upper, err := e.GetTick(poolKey, upperTickIndex)
	if err != nil {
		t.Fatal(err)
	}
	for name, tk := range map[string]struct {
		liquidityChange fixedpoint.Liquidity
	}{"lower": {lower.LiquidityChange}, "middle": {middle.LiquidityChange}, "upper": {upper.LiquidityChange}} {
		if tk.liquidityChange.Cmp(liquidityDelta) != 0 {
			t.Errorf("%s.liquidity_change = %s, want %s", name, tk.liquidityChange, liquidityDelta)
		}
	}
	if !upper.FeeGrowthOutsideX.IsZero() {
		t.Errorf("upper.fee_growth_outside_x = %s, want 0", upper.FeeGrowthOutsideX)
	}
	if want := mustFeeGrowth("30000000000000000000000"); !middle.FeeGrowthOutsideX.Equal(want) {
		t.Errorf("middle.fee_growth_outside_x = %s, want %s", middle.FeeGrowthOutsideX, want)
	}
	if !lower.FeeGrowthOutsideX.IsZero() {
		t.Errorf("lower.fee_growth_outside_x = %s, want 0", lower.FeeGrowthOutsideX)
	}

	for name, idx := range map[string]int32{"lower": lowerTickIndex, "middle": middleTickIndex, "upper": upperTickIndex} {
		initialized, err := e.IsTickInitialized(poolKey, idx)
		if err != nil {
			t.Fatal(err)
		}
		if !initialized {
			t.Errorf("%s tick (%d) not initialized", name, idx)
		}
	}
}

// TestGoldenLiquidityGap reproduces liquidity_gap.rs's test_liquidity_gap:
// a swap that exhausts the only initialized range and, immediately after,
// a follow-up swap that must fail rather than silently walk past the gap.
func TestGoldenLiquidityGap(t *testing.T) {
	protocolFee := fixedpoint.PercentageFromScale(1, 2)
	feeTier, err := pool.NewFeeTier(fixedpoint.PercentageFromScale(6, 3), 10)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(protocolFee)
	if err := e.AddFeeTier(admin, feeTier); err != nil {
		t.Fatal(err)
	}

	initTick := int32(0)
	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(initTick)
	if err != nil {
		t.Fatal(err)
	}
	tokenX, tokenY := solana.PublicKey{1}, solana.PublicKey{2}
	poolKey := pool.PoolKey{TokenX: tokenX, TokenY: tokenY, FeeTier: feeTier}
	if err := e.CreatePool(poolKey, initSqrtPrice, initTick, 0, admin); err != nil {
		t.Fatal(err)
	}

	const lowerTickIndex, upperTickIndex = -10, 10
	liquidityDelta := fixedpoint.LiquidityFromInteger(20_006_000)
	if _, _, _, err := e.CreatePosition(alice, poolKey, lowerTickIndex, upperTickIndex, liquidityDelta, initSqrtPrice, initSqrtPrice, 0, 0); err != nil {
		t.Fatal(err)
	}

	amount := fixedpoint.TokenAmountFromInteger(10067)
	quoted, err := e.Quote(poolKey, true, amount, true, fixedpoint.MinSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Swap(poolKey, true, amount, true, quoted.TargetSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}

	wantOut := fixedpoint.TokenAmountFromInteger(9999)
	if res.AmountIn.Cmp(amount) != 0 {
		t.Errorf("amount_in = %s, want %s", res.AmountIn, amount)
	}
	if res.AmountOut.Cmp(wantOut) != 0 {
		t.Errorf("amount_out = %s, want %s", res.AmountOut, wantOut)
	}

	pl, err := e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	if pl.CurrentTickIndex != lowerTickIndex {
		t.Errorf("current_tick_index = %d, want %d", pl.CurrentTickIndex, lowerTickIndex)
	}
	wantSqrtPrice, err := clmmmath.SqrtPriceAtTick(lowerTickIndex)
	if err != nil {
		t.Fatal(err)
	}
	if !pl.SqrtPrice.Equal(wantSqrtPrice) {
		t.Errorf("sqrt_price = %s, want %s", pl.SqrtPrice, wantSqrtPrice)
	}
	if want := mustFeeGrowth("29991002699190242927121"); !pl.FeeGrowthGlobalX.Equal(want) {
		t.Errorf("fee_growth_global_x = %s, want %s", pl.FeeGrowthGlobalX, want)
	}
	if !pl.FeeGrowthGlobalY.IsZero() {
		t.Errorf("fee_growth_global_y = %s, want 0", pl.FeeGrowthGlobalY)
	}
	if want := fixedpoint.TokenAmountFromInteger(1); pl.FeeProtocolTokenX.Cmp(want) != 0 {
		t.Errorf("fee_protocol_token_x = %s, want %s", pl.FeeProtocolTokenX, want)
	}
	if !pl.FeeProtocolTokenY.IsZero() {
		t.Errorf("fee_protocol_token_y = %s, want 0", pl.FeeProtocolTokenY)
	}

	if _, err := e.Swap(poolKey, true, fixedpoint.TokenAmountFromInteger(1), true, fixedpoint.MinSqrtPrice, 0); err == nil {
		t.Fatal("expected a swap past the liquidity gap to fail")
	}
}

// TestGoldenSwapRoute reproduces swap_route.rs's swap_route test.
func TestGoldenSwapRoute(t *testing.T) {
	protocolFee := fixedpoint.PercentageFromScale(6, 3)
	feeTier, err := pool.NewFeeTier(protocolFee, 1)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(protocolFee)
	if err := e.AddFeeTier(admin, feeTier); err != nil {
		t.Fatal(err)
	}

	tokenX, tokenY, tokenZ := solana.PublicKey{1}, solana.PublicKey{2}, solana.PublicKey{3}
	poolKey1 := pool.PoolKey{TokenX: tokenX, TokenY: tokenY, FeeTier: feeTier}
	poolKey2 := pool.PoolKey{TokenX: tokenY, TokenY: tokenZ, FeeTier: feeTier}

	initTick := int32(0)
	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(initTick)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.CreatePool(poolKey1, initSqrtPrice, initTick, 0, admin); err != nil {
		t.Fatal(err)
	}
	if err := e.CreatePool(poolKey2, initSqrtPrice, initTick, 0, admin); err != nil {
		t.Fatal(err)
	}

	liquidityDelta := fixedpoint.NewLiquidity(uint128.From64(1<<63 - 1))
	if _, _, _, err := e.CreatePosition(alice, poolKey1, -1, 1, liquidityDelta, initSqrtPrice, initSqrtPrice, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := e.CreatePosition(alice, poolKey2, -1, 1, liquidityDelta, initSqrtPrice, initSqrtPrice, 0, 0); err != nil {
		t.Fatal(err)
	}

	hops := []swap.Hop{{PoolKey: poolKey1, XToY: true}, {PoolKey: poolKey2, XToY: true}}
	amountIn := fixedpoint.TokenAmountFromInteger(1000)

	quoted, err := e.QuoteRoute(hops, amountIn, 0)
	if err != nil {
		t.Fatal(err)
	}

	out, err := e.SwapRoute(hops, amountIn, quoted, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixedpoint.TokenAmountFromInteger(986); out.Cmp(want) != 0 {
		t.Errorf("amount_z = %s, want %s", out, want)
	}

	pool1After, err := e.GetPool(poolKey1)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixedpoint.TokenAmountFromInteger(1); pool1After.FeeProtocolTokenX.Cmp(want) != 0 {
		t.Errorf("pool1.fee_protocol_token_x = %s, want %s", pool1After.FeeProtocolTokenX, want)
	}
	if !pool1After.FeeProtocolTokenY.IsZero() {
		t.Errorf("pool1.fee_protocol_token_y = %s, want 0", pool1After.FeeProtocolTokenY)
	}

	pool2After, err := e.GetPool(poolKey2)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixedpoint.TokenAmountFromInteger(1); pool2After.FeeProtocolTokenX.Cmp(want) != 0 {
		t.Errorf("pool2.fee_protocol_token_x = %s, want %s", pool2After.FeeProtocolTokenX, want)
	}
	if !pool2After.FeeProtocolTokenY.IsZero() {
		t.Errorf("pool2.fee_protocol_token_y = %s, want 0", pool2After.FeeProtocolTokenY)
	}
}

// TestGoldenMaxTickCross reproduces max_tick_cross.rs's max_tick_cross:
// a swap dense enough to walk 146 initialized ticks in one call.
func TestGoldenMaxTickCross(t *testing.T) {
	protocolFee := fixedpoint.PercentageFromScale(6, 3)
	feeTier, err := pool.NewFeeTier(protocolFee, 10)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(protocolFee)
	if err := e.AddFeeTier(admin, feeTier); err != nil {
		t.Fatal(err)
	}

	initTick := int32(0)
	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(initTick)
	if err != nil {
		t.Fatal(err)
	}
	tokenX, tokenY := solana.PublicKey{1}, solana.PublicKey{2}
	poolKey := pool.PoolKey{TokenX: tokenX, TokenY: tokenY, FeeTier: feeTier}
	if err := e.CreatePool(poolKey, initSqrtPrice, initTick, 0, admin); err != nil {
		t.Fatal(err)
	}

	liquidity := fixedpoint.LiquidityFromInteger(10000000)
	for i := int32(-2560); i < 20; i += 10 {
		pl, err := e.GetPool(poolKey)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, _, err := e.CreatePosition(alice, poolKey, i, i+10, liquidity, pl.SqrtPrice, pl.SqrtPrice, 0, 0); err != nil {
			t.Fatalf("position [%d,%d]: %v", i, i+10, err)
		}
	}

	pl, err := e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	if pl.Liquidity.Cmp(liquidity) != 0 {
		t.Fatalf("pool.liquidity = %s, want %s", pl.Liquidity, liquidity)
	}
	before := pl.CurrentTickIndex

	amount := fixedpoint.TokenAmountFromInteger(760_000)
	if _, err := e.Quote(poolKey, true, amount, true, fixedpoint.MinSqrtPrice, 0); err != nil {
		t.Fatal(err)
	}

	afterQuote, err := e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	if afterQuote.CurrentTickIndex != before {
		t.Errorf("a quote must not mutate stored pool state: current_tick_index = %d, want %d", afterQuote.CurrentTickIndex, before)
	}

	res, err := e.Swap(poolKey, true, amount, true, fixedpoint.MinSqrtPrice, 0)
	if err != nil {
		t.Fatal(err)
	}

	pl, err = e.GetPool(poolKey)
	if err != nil {
		t.Fatal(err)
	}
	crosses := (before - pl.CurrentTickIndex) / 10
	if crosses < 0 {
		crosses = -crosses
	}
	if crosses != 146 {
		t.Errorf("crosses = %d, want 146", crosses)
	}

	wantTick, err := clmmmath.TickAtSqrtPrice(res.TargetSqrtPrice, feeTier.TickSpacing, true)
	if err != nil {
		t.Fatal(err)
	}
	if pl.CurrentTickIndex != wantTick {
		t.Errorf("current_tick_index = %d, want %d (from target_sqrt_price)", pl.CurrentTickIndex, wantTick)
	}
}
