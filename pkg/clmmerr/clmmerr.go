// Package clmmerr defines the tagged error taxonomy shared by every
// component of the CLMM engine. Every fallible operation in the engine
// returns one of these codes; none are recovered internally.
package clmmerr

import "fmt"

// Code tags an engine error with its taxonomy bucket. String names match
// the contract's own error identifiers so that log lines and test
// fixtures read the same as the reference implementation's.
type Code int

const (
	// Arithmetic
	Add Code = iota
	Sub
	Mul
	Div
	Cast
	ExtendLiquidityOverflow
	BigLiquidityOverflow
	OverflowCastingTokenAmount

	// Input validation
	InvalidTickSpacing
	InvalidFee
	InvalidTickIndex
	InvalidInitTick
	InvalidInitSqrtPrice
	TokensAreSame
	InvalidPoolKey
	UpperTickNotGreater
	TickLowerGreater
	SqrtPriceOutOfRange

	// State lookup
	PoolNotFound
	TickNotFound
	PositionNotFound
	FeeTierNotFound

	// State conflict
	PoolAlreadyExist
	TickAlreadyExist
	TickReInitialize

	// Swap
	AmountIsZero
	WrongLimit
	PriceLimitReached
	NoGainSwap
	TickLimitReached
	InsufficientLiquidity
	AmountUnderMinimumAmountOut

	// Liquidity
	PositionAddLiquidityOverflow
	PositionRemoveLiquidityUnderflow
	UpdateLiquidityPlusOverflow
	UpdateLiquidityMinusOverflow
	TickAddLiquidityOverflow
	TickRemoveLiquidityUnderflow
	InvalidTickLiquidity
	EmptyPositionPokes

	// Authorization
	Unauthorized
)

var names = map[Code]string{
	Add:                         "Add",
	Sub:                         "Sub",
	Mul:                         "Mul",
	Div:                         "Div",
	Cast:                        "Cast",
	ExtendLiquidityOverflow:     "ExtendLiquidityOverflow",
	BigLiquidityOverflow:        "BigLiquidityOverflow",
	OverflowCastingTokenAmount:  "OverflowCastingTokenAmount",
	InvalidTickSpacing:          "InvalidTickSpacing",
	InvalidFee:                  "InvalidFee",
	InvalidTickIndex:            "InvalidTickIndex",
	InvalidInitTick:             "InvalidInitTick",
	InvalidInitSqrtPrice:        "InvalidInitSqrtPrice",
	TokensAreSame:               "TokensAreSame",
	InvalidPoolKey:              "InvalidPoolKey",
	UpperTickNotGreater:         "UpperTickNotGreater",
	TickLowerGreater:            "TickLowerGreater",
	SqrtPriceOutOfRange:         "SqrtPriceOutOfRange",
	PoolNotFound:                "PoolNotFound",
	TickNotFound:                "TickNotFound",
	PositionNotFound:            "PositionNotFound",
	FeeTierNotFound:             "FeeTierNotFound",
	PoolAlreadyExist:            "PoolAlreadyExist",
	TickAlreadyExist:            "TickAlreadyExist",
	TickReInitialize:            "TickReInitialize",
	AmountIsZero:                "AmountIsZero",
	WrongLimit:                  "WrongLimit",
	PriceLimitReached:           "PriceLimitReached",
	NoGainSwap:                  "NoGainSwap",
	TickLimitReached:            "TickLimitReached",
	InsufficientLiquidity:       "InsufficientLiquidity",
	AmountUnderMinimumAmountOut: "AmountUnderMinimumAmountOut",
	PositionAddLiquidityOverflow:      "PositionAddLiquidityOverflow",
	PositionRemoveLiquidityUnderflow:  "PositionRemoveLiquidityUnderflow",
	UpdateLiquidityPlusOverflow:       "UpdateLiquidityPlusOverflow",
	UpdateLiquidityMinusOverflow:      "UpdateLiquidityMinusOverflow",
	TickAddLiquidityOverflow:          "TickAddLiquidityOverflow",
	TickRemoveLiquidityUnderflow:      "TickRemoveLiquidityUnderflow",
	InvalidTickLiquidity:              "InvalidTickLiquidity",
	EmptyPositionPokes:                "EmptyPositionPokes",
	Unauthorized:                      "Unauthorized",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error wraps a tagged Code with a human-readable message and, where
// applicable, the underlying cause. It is the only error type the
// engine returns; callers that need to branch on failure kind should
// switch on Code(), not on string matching.
type Error struct {
	code Code
	msg  string
	err  error
}

func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func Wrap(code Code, msg string, err error) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Code() Code { return e.code }

func (e *Error) Error() string {
	if e.msg == "" {
		return e.code.String()
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is lets errors.Is(err, clmmerr.New(Code, "")) match purely on code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, and a zero value plus false otherwise.
func CodeOf(err error) (Code, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.code, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}
