// Package events implements a handler-registry event recorder for the
// four structured records the engine emits: CreatePosition,
// RemovePosition, Swap, and CrossTick.
//
// Grounded on pkg/subscription/manager.go's SubscriptionManager: a
// mutex-guarded map of registered handlers, invoked synchronously on
// Emit rather than dispatched over a channel, since the engine runs
// single-threaded start-to-finish per operation.
package events

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
)

// Kind tags which of the four record shapes an Event carries.
type Kind int

const (
	CreatePosition Kind = iota
	RemovePosition
	Swap
	CrossTick
)

func (k Kind) String() string {
	switch k {
	case CreatePosition:
		return "CreatePosition"
	case RemovePosition:
		return "RemovePosition"
	case Swap:
		return "Swap"
	case CrossTick:
		return "CrossTick"
	default:
		return "Unknown"
	}
}

// Event is the single record shape every kind is carried in; fields
// irrelevant to a given Kind are left zero.
type Event struct {
	Kind      Kind
	Pool      pool.Key
	Timestamp uint64

	Owner         solana.PublicKey
	PositionIndex uint32
	LowerTick     int32
	UpperTick     int32
	LiquidityX    fixedpoint.TokenAmount
	LiquidityY    fixedpoint.TokenAmount

	AmountIn        fixedpoint.TokenAmount
	AmountOut       fixedpoint.TokenAmount
	StartSqrtPrice  fixedpoint.SqrtPrice
	TargetSqrtPrice fixedpoint.SqrtPrice

	CrossedTicks []int32
}

// Handler is invoked synchronously by Emit for every handler registered
// against the event's Kind.
type Handler func(Event)

// Recorder is a mutex-guarded registry of Kind -> handlers.
type Recorder struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[Kind][]Handler)}
}

// RegisterHandler adds h to the set invoked whenever Emit is called
// with a matching Kind.
func (r *Recorder) RegisterHandler(kind Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// Emit invokes every handler registered for e.Kind, in registration
// order. A nil Recorder is a valid no-op emitter.
func (r *Recorder) Emit(e Event) {
	if r == nil {
		return
	}
	r.mu.RLock()
	hs := append([]Handler(nil), r.handlers[e.Kind]...)
	r.mu.RUnlock()
	for _, h := range hs {
		h(e)
	}
}
