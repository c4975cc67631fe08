package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmmath"
	"soltrading/pkg/config"
	"soltrading/pkg/engine"
	"soltrading/pkg/events"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/storage"
)

// QuoteResponse mirrors the reference quote's shape: what would move,
// at what price, and how much fee it would cost, without touching any
// persisted state.
type QuoteResponse struct {
	TokenX          string `json:"tokenX"`
	TokenY          string `json:"tokenY"`
	AmountIn        string `json:"amountIn"`
	AmountOut       string `json:"amountOut"`
	Fee             string `json:"fee"`
	StartSqrtPrice  string `json:"startSqrtPrice"`
	TargetSqrtPrice string `json:"targetSqrtPrice"`
	CrossedTicks    int    `json:"crossedTicks"`
}

type QuoteError struct {
	Error string `json:"error"`
}

var (
	tokenXFlag  = flag.String("token-x", "", "Token X mint address (required)")
	tokenYFlag  = flag.String("token-y", "", "Token Y mint address (required)")
	feeBps      = flag.Int("fee-bps", 30, "Pool fee in basis points (default: 30 = 0.3%)")
	tickSpacing = flag.Int("tick-spacing", 1, "Tick spacing for the seeded pool (default: 1)")
	initTick    = flag.Int("init-tick", 0, "Initial tick the seeded pool opens at (default: 0)")
	lowerTick   = flag.Int("lower-tick", -1000, "Lower bound of the seeded liquidity position")
	upperTick   = flag.Int("upper-tick", 1000, "Upper bound of the seeded liquidity position")
	liquidity   = flag.String("liquidity", "1000000000", "Liquidity seeded into the pool (integer)")
	amount      = flag.String("amount", "", "Amount to quote, in raw token units (required)")
	xToY        = flag.Bool("x-to-y", true, "Swap direction: true moves price down (X -> Y)")
	byAmountIn  = flag.Bool("by-amount-in", true, "Whether amount is the input (true) or the desired output (false)")
	jsonOutput  = flag.Bool("json", true, "Output as JSON (default: true)")
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	flag.Parse()

	if *tokenXFlag == "" || *tokenYFlag == "" || *amount == "" {
		fmt.Fprintln(os.Stderr, "Error: Missing required arguments")
		fmt.Fprintln(os.Stderr, "\nUsage:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nExample:")
		fmt.Fprintln(os.Stderr, "  clmmquote -token-x <mint> -token-y <mint> -amount 1000")
		os.Exit(1)
	}

	tokenX, err := solana.PublicKeyFromBase58(*tokenXFlag)
	if err != nil {
		outputError(fmt.Sprintf("Invalid token-x address: %v", err))
		os.Exit(1)
	}
	tokenY, err := solana.PublicKeyFromBase58(*tokenYFlag)
	if err != nil {
		outputError(fmt.Sprintf("Invalid token-y address: %v", err))
		os.Exit(1)
	}

	liquidityRaw, err := strconv.ParseUint(*liquidity, 10, 64)
	if err != nil {
		outputError(fmt.Sprintf("Invalid liquidity: %v", err))
		os.Exit(1)
	}
	amountRaw, err := strconv.ParseUint(*amount, 10, 64)
	if err != nil {
		outputError(fmt.Sprintf("Invalid amount: %v", err))
		os.Exit(1)
	}

	feeTier, err := pool.NewFeeTier(fixedpoint.PercentageFromScale(uint64(*feeBps), 4), uint16(*tickSpacing))
	if err != nil {
		outputError(fmt.Sprintf("Invalid fee tier: %v", err))
		os.Exit(1)
	}
	poolKey, err := pool.NewPoolKey(tokenX, tokenY, feeTier)
	if err != nil {
		outputError(fmt.Sprintf("Invalid pool key: %v", err))
		os.Exit(1)
	}

	initSqrtPrice, err := clmmmath.SqrtPriceAtTick(int32(*initTick))
	if err != nil {
		outputError(fmt.Sprintf("Invalid init-tick: %v", err))
		os.Exit(1)
	}

	store := storage.NewMemStore()
	e := engine.New(store, events.NewRecorder())
	admin := solana.PublicKey{}
	e.Instantiate(admin, fixedpoint.Percentage{})

	if err := e.AddFeeTier(admin, feeTier); err != nil {
		outputError(fmt.Sprintf("Failed to register fee tier: %v", err))
		os.Exit(1)
	}
	if err := e.CreatePool(poolKey, initSqrtPrice, int32(*initTick), 0, admin); err != nil {
		outputError(fmt.Sprintf("Failed to seed pool: %v", err))
		os.Exit(1)
	}
	if _, _, _, err := e.CreatePosition(admin, poolKey, int32(*lowerTick), int32(*upperTick), fixedpoint.LiquidityFromInteger(liquidityRaw), fixedpoint.MinSqrtPrice, fixedpoint.MaxSqrtPrice, 0, 0); err != nil {
		outputError(fmt.Sprintf("Failed to seed liquidity: %v", err))
		os.Exit(1)
	}

	sqrtPriceLimit := fixedpoint.MaxSqrtPrice
	if *xToY {
		sqrtPriceLimit = fixedpoint.MinSqrtPrice
	}

	if !*jsonOutput {
		log.Printf("Quoting %s units of %s over pool %s/%s...", *amount, map[bool]string{true: "X", false: "Y"}[*xToY], *tokenXFlag, *tokenYFlag)
	}

	res, err := e.Quote(poolKey, *xToY, fixedpoint.TokenAmountFromInteger(amountRaw), *byAmountIn, sqrtPriceLimit, 0)
	if err != nil {
		outputError(fmt.Sprintf("Quote failed: %v", err))
		os.Exit(1)
	}

	response := QuoteResponse{
		TokenX:          tokenX.String(),
		TokenY:          tokenY.String(),
		AmountIn:        res.AmountIn.String(),
		AmountOut:       res.AmountOut.String(),
		Fee:             res.Fee.String(),
		StartSqrtPrice:  res.StartSqrtPrice.String(),
		TargetSqrtPrice: res.TargetSqrtPrice.String(),
		CrossedTicks:    len(res.CrossedTicks),
	}

	if *jsonOutput {
		jsonData, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			outputError(fmt.Sprintf("Failed to marshal JSON: %v", err))
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	} else {
		fmt.Printf("\n=== Quote Results ===\n")
		fmt.Printf("Pool: %s / %s\n", response.TokenX, response.TokenY)
		fmt.Printf("In:  %s\n", response.AmountIn)
		fmt.Printf("Out: %s\n", response.AmountOut)
		fmt.Printf("Fee: %s\n", response.Fee)
		fmt.Printf("Price: %s -> %s\n", response.StartSqrtPrice, response.TargetSqrtPrice)
		fmt.Printf("Crossed ticks: %d\n", response.CrossedTicks)
	}
}

func outputError(msg string) {
	if *jsonOutput {
		errResp := QuoteError{Error: msg}
		jsonData, _ := json.MarshalIndent(errResp, "", "  ")
		fmt.Fprintln(os.Stderr, string(jsonData))
	} else {
		log.Println("Error:", msg)
	}
}
