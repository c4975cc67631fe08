package pool

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"soltrading/pkg/clmmmath"
	"soltrading/pkg/fixedpoint"
)

func TestCreateValidatesBucket(t *testing.T) {
	initTick := int32(100)
	sp, err := clmmmath.SqrtPriceAtTick(initTick)
	if err != nil {
		t.Fatal(err)
	}

	p, err := Create(sp, initTick, 100, 1, solana.PublicKey{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentTickIndex != initTick {
		t.Errorf("current_tick_index = %d, want %d", p.CurrentTickIndex, initTick)
	}
	if p.StartTimestamp != 100 || p.LastTimestamp != 100 {
		t.Errorf("timestamps not seeded correctly: %+v", p)
	}
}

func TestCreateRejectsMismatchedBucket(t *testing.T) {
	sp, err := clmmmath.SqrtPriceAtTick(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Create(sp, 2, 0, 1, solana.PublicKey{}); err == nil {
		t.Fatal("expected InvalidInitSqrtPrice for tick 3's price claimed as tick 2")
	}
	if _, err := Create(sp, 3, 0, 1, solana.PublicKey{}); err != nil {
		t.Errorf("expected tick 3's own price to validate, got %v", err)
	}
}

// TestAddFeeTwentyPercent mirrors the reference add_fee test scenario:
// liquidity=10, protocol fee 20%, amount=6 in X.
func TestAddFeeTwentyPercent(t *testing.T) {
	p := Pool{Liquidity: fixedpoint.LiquidityFromInteger(10)}
	protocolFee := fixedpoint.PercentageFromScale(2, 1)
	amount := fixedpoint.TokenAmountFromInteger(6)

	if err := p.AddFee(amount, true, protocolFee); err != nil {
		t.Fatal(err)
	}

	wantGrowthX := fixedpoint.FeeGrowthFromScale(4, 1)
	if !p.FeeGrowthGlobalX.Equal(wantGrowthX) {
		t.Errorf("fee_growth_global_x = %s, want %s", p.FeeGrowthGlobalX, wantGrowthX)
	}
	wantProtocolX := fixedpoint.TokenAmountFromInteger(2)
	if p.FeeProtocolTokenX.Cmp(wantProtocolX) != 0 {
		t.Errorf("fee_protocol_token_x = %s, want %s", p.FeeProtocolTokenX, wantProtocolX)
	}
}

// TestAddFeeGoldenVectors reproduces the remaining sub-cases of the
// reference add_fee test module (original_source .../storage/pool.rs):
// the in-Y 20%-protocol-fee case, the dust-amount case, and the three
// max-amount/max-liquidity overflow-boundary cases.
func TestAddFeeGoldenVectors(t *testing.T) {
	t.Run("in_y twenty percent", func(t *testing.T) {
		p := Pool{Liquidity: fixedpoint.LiquidityFromInteger(10)}
		protocolFee := fixedpoint.PercentageFromScale(2, 1)
		if err := p.AddFee(fixedpoint.TokenAmountFromInteger(200), false, protocolFee); err != nil {
			t.Fatal(err)
		}
		if !p.FeeGrowthGlobalX.IsZero() {
			t.Errorf("fee_growth_global_x = %s, want 0", p.FeeGrowthGlobalX)
		}
		if want := fixedpoint.FeeGrowthFromScale(160, 1); !p.FeeGrowthGlobalY.Equal(want) {
			t.Errorf("fee_growth_global_y = %s, want %s", p.FeeGrowthGlobalY, want)
		}
		if !p.FeeProtocolTokenX.IsZero() {
			t.Errorf("fee_protocol_token_x = %s, want 0", p.FeeProtocolTokenX)
		}
		if want := fixedpoint.TokenAmountFromInteger(40); p.FeeProtocolTokenY.Cmp(want) != 0 {
			t.Errorf("fee_protocol_token_y = %s, want %s", p.FeeProtocolTokenY, want)
		}
	})

	t.Run("dust amount in x", func(t *testing.T) {
		p := Pool{Liquidity: fixedpoint.LiquidityFromInteger(10)}
		protocolFee := fixedpoint.PercentageFromScale(2, 1)
		if err := p.AddFee(fixedpoint.NewTokenAmount(uint128.From64(1)), true, protocolFee); err != nil {
			t.Fatal(err)
		}
		if !p.FeeGrowthGlobalX.IsZero() || !p.FeeGrowthGlobalY.IsZero() {
			t.Errorf("expected zero fee growth on a dust amount, got x=%s y=%s", p.FeeGrowthGlobalX, p.FeeGrowthGlobalY)
		}
		if want := fixedpoint.TokenAmountFromInteger(1); p.FeeProtocolTokenX.Cmp(want) != 0 {
			t.Errorf("fee_protocol_token_x = %s, want %s", p.FeeProtocolTokenX, want)
		}
		if !p.FeeProtocolTokenY.IsZero() {
			t.Errorf("fee_protocol_token_y = %s, want 0", p.FeeProtocolTokenY)
		}
	})

	maxAmount := fixedpoint.MaxTokenAmount
	maxLiquidity := fixedpoint.NewLiquidity(uint128.Max)
	maxProtocolFee := fixedpoint.PercentageFromInteger(1)
	minProtocolFee := fixedpoint.PercentageFromInteger(0)
	// 100% protocol fee skims the entire amount: u128::MAX, same as maxAmount itself.
	wantMaxProtocolCut := maxAmount.Raw()

	t.Run("max fee max amount max liquidity in x", func(t *testing.T) {
		p := Pool{Liquidity: maxLiquidity}
		if err := p.AddFee(maxAmount, true, maxProtocolFee); err != nil {
			t.Fatal(err)
		}
		if !p.FeeGrowthGlobalX.IsZero() || !p.FeeGrowthGlobalY.IsZero() {
			t.Errorf("expected zero fee growth when the whole fee is skimmed to protocol, got x=%s y=%s", p.FeeGrowthGlobalX, p.FeeGrowthGlobalY)
		}
		if p.FeeProtocolTokenX.Raw() != wantMaxProtocolCut {
			t.Errorf("fee_protocol_token_x = %s, want %s", p.FeeProtocolTokenX, wantMaxProtocolCut)
		}
		if !p.FeeProtocolTokenY.IsZero() {
			t.Errorf("fee_protocol_token_y = %s, want 0", p.FeeProtocolTokenY)
		}
	})

	t.Run("max fee max amount max liquidity in y", func(t *testing.T) {
		p := Pool{Liquidity: maxLiquidity}
		if err := p.AddFee(maxAmount, false, maxProtocolFee); err != nil {
			t.Fatal(err)
		}
		if !p.FeeGrowthGlobalX.IsZero() || !p.FeeGrowthGlobalY.IsZero() {
			t.Errorf("expected zero fee growth when the whole fee is skimmed to protocol, got x=%s y=%s", p.FeeGrowthGlobalX, p.FeeGrowthGlobalY)
		}
		if !p.FeeProtocolTokenX.IsZero() {
			t.Errorf("fee_protocol_token_x = %s, want 0", p.FeeProtocolTokenX)
		}
		if p.FeeProtocolTokenY.Raw() != wantMaxProtocolCut {
			t.Errorf("fee_protocol_token_y = %s, want %s", p.FeeProtocolTokenY, wantMaxProtocolCut)
		}
	})

	t.Run("min fee max amount max liquidity in x", func(t *testing.T) {
		p := Pool{Liquidity: maxLiquidity}
		if err := p.AddFee(maxAmount, true, minProtocolFee); err != nil {
			t.Fatal(err)
		}
		if want := fixedpoint.FeeGrowthFromScale(1_000_000, 0); !p.FeeGrowthGlobalX.Equal(want) {
			t.Errorf("fee_growth_global_x = %s, want %s", p.FeeGrowthGlobalX, want)
		}
		if !p.FeeGrowthGlobalY.IsZero() {
			t.Errorf("fee_growth_global_y = %s, want 0", p.FeeGrowthGlobalY)
		}
		if !p.FeeProtocolTokenX.IsZero() || !p.FeeProtocolTokenY.IsZero() {
			t.Errorf("expected no protocol cut at 0%% protocol fee, got x=%s y=%s", p.FeeProtocolTokenX, p.FeeProtocolTokenY)
		}
	})
}

func TestWithdrawProtocolFeeZeros(t *testing.T) {
	p := Pool{
		FeeProtocolTokenX: fixedpoint.TokenAmountFromInteger(5),
		FeeProtocolTokenY: fixedpoint.TokenAmountFromInteger(7),
	}
	x, y := p.WithdrawProtocolFee()
	if x.Cmp(fixedpoint.TokenAmountFromInteger(5)) != 0 || y.Cmp(fixedpoint.TokenAmountFromInteger(7)) != 0 {
		t.Fatalf("unexpected withdrawn amounts: %s %s", x, y)
	}
	if !p.FeeProtocolTokenX.IsZero() || !p.FeeProtocolTokenY.IsZero() {
		t.Fatal("expected balances to be zeroed after withdrawal")
	}
}
