// Package engine is the façade every external caller drives: pool and
// position lifecycle, swaps and routes, the admin surface, and the full
// read-only query surface, all operating against a storage.Store.
//
// Grounded on original_source/contracts/oraiswap-v3/src/contract.rs
// (instantiate/execute/query dispatch shape) and
// entrypoints/execute.rs (withdraw_protocol_fee, change_protocol_fee,
// change_fee_receiver, create_position, swap handler bodies).
package engine

import (
	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/clmmmath"
	"soltrading/pkg/events"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/position"
	"soltrading/pkg/storage"
	"soltrading/pkg/swap"
	"soltrading/pkg/tick"
)

// Pagination limits on the query surface, derived from a fixed result
// budget the way the reference engine bounds a single query's encoded
// response size.
const (
	maxResultSizeBits  = 16 * 1024 * 8
	MaxTickmapQuerySize = maxResultSizeBits / (16 + 64)
	LiquidityTickLimit  = maxResultSizeBits / (32 + 128 + 8)
)

// Engine bundles a Store with the event recorder lifecycle operations
// emit into.
type Engine struct {
	Store  storage.Store
	Events *events.Recorder
}

func New(store storage.Store, recorder *events.Recorder) *Engine {
	return &Engine{Store: store, Events: recorder}
}

// Instantiate seeds the single global config record, setting admin to
// the caller.
func (e *Engine) Instantiate(admin solana.PublicKey, protocolFee fixedpoint.Percentage) {
	e.Store.SaveConfig(storage.Config{Admin: admin, ProtocolFee: protocolFee})
}

func (e *Engine) requireAdmin(caller solana.PublicKey) error {
	cfg, ok := e.Store.GetConfig()
	if !ok || cfg.Admin != caller {
		return clmmerr.New(clmmerr.Unauthorized, "caller is not the admin")
	}
	return nil
}

// AddFeeTier registers a new (fee, tick_spacing) combination pools may
// be created under.
func (e *Engine) AddFeeTier(caller solana.PublicKey, feeTier pool.FeeTier) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.Store.SaveFeeTier(feeTier)
	return nil
}

// RemoveFeeTier de-registers a fee tier; existing pools under it are
// unaffected.
func (e *Engine) RemoveFeeTier(caller solana.PublicKey, key pool.FeeTierKey) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.Store.DeleteFeeTier(key)
	return nil
}

// ChangeProtocolFee updates the global protocol-fee percentage new
// swaps apply.
func (e *Engine) ChangeProtocolFee(caller solana.PublicKey, newFee fixedpoint.Percentage) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	cfg, _ := e.Store.GetConfig()
	cfg.ProtocolFee = newFee
	e.Store.SaveConfig(cfg)
	return nil
}

// ChangeAdmin transfers admin authority to a new account.
func (e *Engine) ChangeAdmin(caller, newAdmin solana.PublicKey) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	cfg, _ := e.Store.GetConfig()
	cfg.Admin = newAdmin
	e.Store.SaveConfig(cfg)
	return nil
}

// ChangeFeeReceiver reassigns which account may withdraw a pool's
// accrued protocol fee.
func (e *Engine) ChangeFeeReceiver(caller solana.PublicKey, poolKey pool.PoolKey, newReceiver solana.PublicKey) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	key := poolKey.Key()
	pl, err := storage.RequirePool(e.Store, key)
	if err != nil {
		return err
	}
	pl.FeeReceiver = newReceiver
	e.Store.SavePool(key, pl)
	return nil
}

// WithdrawProtocolFee lets a pool's fee_receiver collect its accrued
// protocol fee balances.
func (e *Engine) WithdrawProtocolFee(caller solana.PublicKey, poolKey pool.PoolKey) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	key := poolKey.Key()
	pl, err := storage.RequirePool(e.Store, key)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	if pl.FeeReceiver != caller {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.New(clmmerr.Unauthorized, "caller is not the pool's fee receiver")
	}
	x, y := pl.WithdrawProtocolFee()
	e.Store.SavePool(key, pl)
	return x, y, nil
}

// CreatePool opens a new, empty pool at the given initial price, which
// must belong to init_tick's own bucket under the fee tier's spacing.
func (e *Engine) CreatePool(poolKey pool.PoolKey, initSqrtPrice fixedpoint.SqrtPrice, initTick int32, currentTimestamp uint64, feeReceiver solana.PublicKey) error {
	if _, err := storage.RequireFeeTier(e.Store, poolKey.FeeTier.Key()); err != nil {
		return err
	}

	key := poolKey.Key()
	if _, ok := e.Store.GetPool(key); ok {
		return clmmerr.New(clmmerr.PoolAlreadyExist, "pool already exists for this key")
	}

	pl, err := pool.Create(initSqrtPrice, initTick, currentTimestamp, poolKey.FeeTier.TickSpacing, feeReceiver)
	if err != nil {
		return err
	}
	e.Store.SavePool(key, pl)
	return nil
}

// getOrCreateTick loads tick index within poolKey, initializing and
// flipping its tickmap bit on first reference.
func (e *Engine) getOrCreateTick(poolKey pool.PoolKey, key pool.Key, index int32, pl pool.Pool, currentTimestamp uint64) (tick.Tick, error) {
	tk := storage.TickKey{Pool: key, Index: index}
	if t, ok := e.Store.GetTick(tk); ok {
		return t, nil
	}

	sqrtPrice, err := clmmmath.SqrtPriceAtTick(index)
	if err != nil {
		return tick.Tick{}, err
	}
	t := tick.New(index, sqrtPrice, pl.CurrentTickIndex, pl.FeeGrowthGlobalX, pl.FeeGrowthGlobalY, currentTimestamp)

	tm := e.Store.GetTickmap(key)
	if err := tm.Flip(true, index, poolKey.FeeTier.TickSpacing); err != nil {
		return tick.Tick{}, err
	}
	return t, nil
}

// CreatePosition opens a new liquidity position over [lowerTick,
// upperTick), creating either bounding tick record on first reference.
func (e *Engine) CreatePosition(owner solana.PublicKey, poolKey pool.PoolKey, lowerTick, upperTick int32, liquidityDelta fixedpoint.Liquidity, slippageLower, slippageUpper fixedpoint.SqrtPrice, currentTimestamp, blockNumber uint64) (position.Position, fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	if liquidityDelta.IsZero() {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.New(clmmerr.InsufficientLiquidity, "cannot open a position with zero liquidity")
	}
	if lowerTick == upperTick {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, clmmerr.New(clmmerr.InvalidTickIndex, "lower and upper tick must differ")
	}

	key := poolKey.Key()
	pl, err := storage.RequirePool(e.Store, key)
	if err != nil {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	lower, err := e.getOrCreateTick(poolKey, key, lowerTick, pl, currentTimestamp)
	if err != nil {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	upper, err := e.getOrCreateTick(poolKey, key, upperTick, pl, currentTimestamp)
	if err != nil {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	pos, x, y, err := position.Create(&pl, poolKey, &lower, &upper, currentTimestamp, liquidityDelta, slippageLower, slippageUpper, blockNumber, poolKey.FeeTier.TickSpacing)
	if err != nil {
		return position.Position{}, fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	e.Store.SavePool(key, pl)
	e.Store.SaveTick(storage.TickKey{Pool: key, Index: lower.Index}, lower)
	e.Store.SaveTick(storage.TickKey{Pool: key, Index: upper.Index}, upper)

	index := e.Store.OwnerPositionCount(owner)
	e.Store.SavePosition(storage.PositionKey{Owner: owner, Index: index}, pos)

	e.Events.Emit(events.Event{
		Kind: events.CreatePosition, Pool: key, Timestamp: currentTimestamp,
		Owner: owner, PositionIndex: index, LowerTick: lowerTick, UpperTick: upperTick,
		LiquidityX: x, LiquidityY: y,
	})

	return pos, x, y, nil
}

// swapRemovePosition compacts owner's position list after a removal or
// transfer out of slot index, moving the last element into the gap.
func (e *Engine) swapRemovePosition(owner solana.PublicKey, index uint32) {
	count := e.Store.OwnerPositionCount(owner)
	if count == 0 {
		return
	}
	last := count - 1
	if index != last {
		if moved, ok := e.Store.GetPosition(storage.PositionKey{Owner: owner, Index: last}); ok {
			e.Store.SavePosition(storage.PositionKey{Owner: owner, Index: index}, moved)
		}
	}
	e.Store.DeletePosition(storage.PositionKey{Owner: owner, Index: last})
}

// RemovePosition closes a position entirely, returning the underlying
// tokens plus any unclaimed fee, and deinitializes either bounding tick
// whose liquidity_gross returns to zero.
func (e *Engine) RemovePosition(owner solana.PublicKey, index uint32, poolKey pool.PoolKey, currentTimestamp uint64) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	posKey := storage.PositionKey{Owner: owner, Index: index}
	pos, err := storage.RequirePosition(e.Store, posKey)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	key := poolKey.Key()
	pl, err := storage.RequirePool(e.Store, key)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	lower, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: pos.LowerTickIndex})
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	upper, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: pos.UpperTickIndex})
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	x, y, deinitLower, deinitUpper, err := pos.Remove(&pl, currentTimestamp, &lower, &upper, poolKey.FeeTier.TickSpacing)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	e.Store.SavePool(key, pl)

	if deinitLower {
		e.Store.DeleteTick(storage.TickKey{Pool: key, Index: lower.Index})
		e.Store.GetTickmap(key).Flip(false, lower.Index, poolKey.FeeTier.TickSpacing)
	} else {
		e.Store.SaveTick(storage.TickKey{Pool: key, Index: lower.Index}, lower)
	}
	if deinitUpper {
		e.Store.DeleteTick(storage.TickKey{Pool: key, Index: upper.Index})
		e.Store.GetTickmap(key).Flip(false, upper.Index, poolKey.FeeTier.TickSpacing)
	} else {
		e.Store.SaveTick(storage.TickKey{Pool: key, Index: upper.Index}, upper)
	}

	e.swapRemovePosition(owner, index)

	e.Events.Emit(events.Event{
		Kind: events.RemovePosition, Pool: key, Timestamp: currentTimestamp,
		Owner: owner, PositionIndex: index, LowerTick: pos.LowerTickIndex, UpperTick: pos.UpperTickIndex,
		LiquidityX: x, LiquidityY: y,
	})

	return x, y, nil
}

// TransferPosition moves ownership of a position to recipient, who
// receives it at a fresh ordinal appended to their own list.
func (e *Engine) TransferPosition(owner solana.PublicKey, index uint32, recipient solana.PublicKey) error {
	posKey := storage.PositionKey{Owner: owner, Index: index}
	pos, err := storage.RequirePosition(e.Store, posKey)
	if err != nil {
		return err
	}

	newIndex := e.Store.OwnerPositionCount(recipient)
	e.Store.SavePosition(storage.PositionKey{Owner: recipient, Index: newIndex}, pos)
	e.swapRemovePosition(owner, index)
	return nil
}

// ClaimFee settles a position's accrued fee without changing its
// liquidity, returning what was collected.
func (e *Engine) ClaimFee(owner solana.PublicKey, index uint32, poolKey pool.PoolKey, currentTimestamp uint64) (fixedpoint.TokenAmount, fixedpoint.TokenAmount, error) {
	posKey := storage.PositionKey{Owner: owner, Index: index}
	pos, err := storage.RequirePosition(e.Store, posKey)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	key := poolKey.Key()
	pl, err := storage.RequirePool(e.Store, key)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	lower, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: pos.LowerTickIndex})
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}
	upper, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: pos.UpperTickIndex})
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	x, y, err := pos.ClaimFee(&pl, &upper, &lower, currentTimestamp, poolKey.FeeTier.TickSpacing)
	if err != nil {
		return fixedpoint.TokenAmount{}, fixedpoint.TokenAmount{}, err
	}

	e.Store.SavePool(key, pl)
	e.Store.SaveTick(storage.TickKey{Pool: key, Index: lower.Index}, lower)
	e.Store.SaveTick(storage.TickKey{Pool: key, Index: upper.Index}, upper)
	e.Store.SavePosition(posKey, pos)

	return x, y, nil
}

// Swap executes a persisting swap and emits Swap/CrossTick events.
func (e *Engine) Swap(poolKey pool.PoolKey, xToY bool, amount fixedpoint.TokenAmount, byAmountIn bool, sqrtPriceLimit fixedpoint.SqrtPrice, currentTimestamp uint64) (swap.Result, error) {
	res, err := swap.Swap(e.Store, currentTimestamp, poolKey, xToY, amount, byAmountIn, sqrtPriceLimit)
	if err != nil {
		return swap.Result{}, err
	}

	key := poolKey.Key()
	e.Events.Emit(events.Event{
		Kind: events.Swap, Pool: key, Timestamp: currentTimestamp,
		AmountIn: res.AmountIn, AmountOut: res.AmountOut,
		StartSqrtPrice: res.StartSqrtPrice, TargetSqrtPrice: res.TargetSqrtPrice,
	})
	if len(res.CrossedTicks) > 0 {
		indexes := make([]int32, len(res.CrossedTicks))
		for i, t := range res.CrossedTicks {
			indexes[i] = t.Index
		}
		e.Events.Emit(events.Event{Kind: events.CrossTick, Pool: key, Timestamp: currentTimestamp, CrossedTicks: indexes})
	}

	return res, nil
}

// Quote runs the advisory swap projection without touching storage.
func (e *Engine) Quote(poolKey pool.PoolKey, xToY bool, amount fixedpoint.TokenAmount, byAmountIn bool, sqrtPriceLimit fixedpoint.SqrtPrice, currentTimestamp uint64) (swap.Result, error) {
	return swap.Quote(e.Store, currentTimestamp, poolKey, xToY, amount, byAmountIn, sqrtPriceLimit)
}

// SwapRoute executes a multi-hop route and emits one aggregate Swap
// event covering the whole route.
func (e *Engine) SwapRoute(hops []swap.Hop, amountIn, minOut fixedpoint.TokenAmount, currentTimestamp uint64) (fixedpoint.TokenAmount, error) {
	out, err := swap.SwapRoute(e.Store, currentTimestamp, hops, amountIn, minOut)
	if err != nil {
		return fixedpoint.TokenAmount{}, err
	}
	if len(hops) > 0 {
		e.Events.Emit(events.Event{
			Kind: events.Swap, Pool: hops[0].PoolKey.Key(), Timestamp: currentTimestamp,
			AmountIn: amountIn, AmountOut: out,
		})
	}
	return out, nil
}

// QuoteRoute projects a multi-hop route without touching storage.
func (e *Engine) QuoteRoute(hops []swap.Hop, amountIn fixedpoint.TokenAmount, currentTimestamp uint64) (fixedpoint.TokenAmount, error) {
	return swap.QuoteRoute(e.Store, currentTimestamp, hops, amountIn)
}

// --- Query surface ---

// ProtocolFee returns the global protocol-fee percentage new swaps apply.
func (e *Engine) ProtocolFee() fixedpoint.Percentage {
	cfg, _ := e.Store.GetConfig()
	return cfg.ProtocolFee
}

// Admin returns the account with authority over fee tiers, protocol fee,
// and fee receivers.
func (e *Engine) Admin() solana.PublicKey {
	cfg, _ := e.Store.GetConfig()
	return cfg.Admin
}

// FeeTiers lists every registered (fee, tick_spacing) combination pools
// may be created under.
func (e *Engine) FeeTiers() []pool.FeeTier {
	return e.Store.ListFeeTiers()
}

// Pools lists every open pool and its current state.
func (e *Engine) Pools() []storage.PoolEntry {
	return e.Store.ListPools()
}

func (e *Engine) GetPool(poolKey pool.PoolKey) (pool.Pool, error) {
	return storage.RequirePool(e.Store, poolKey.Key())
}

func (e *Engine) GetTick(poolKey pool.PoolKey, index int32) (tick.Tick, error) {
	return storage.RequireTick(e.Store, storage.TickKey{Pool: poolKey.Key(), Index: index})
}

func (e *Engine) IsTickInitialized(poolKey pool.PoolKey, index int32) (bool, error) {
	return e.Store.GetTickmap(poolKey.Key()).Get(index, poolKey.FeeTier.TickSpacing)
}

func (e *Engine) GetPosition(owner solana.PublicKey, index uint32) (position.Position, error) {
	return storage.RequirePosition(e.Store, storage.PositionKey{Owner: owner, Index: index})
}

// ListPositions returns up to limit positions for owner, starting at
// offset within their compact ordinal list.
func (e *Engine) ListPositions(owner solana.PublicKey, offset, limit uint32) []position.Position {
	all := e.Store.ListOwnerPositions(owner)
	if offset >= uint32(len(all)) {
		return nil
	}
	end := offset + limit
	if limit == 0 || end > uint32(len(all)) {
		end = uint32(len(all))
	}
	return all[offset:end]
}

// TickmapPage is one paginated slice of a pool's tickmap chunks.
type TickmapPage struct {
	Chunks map[uint16]uint64
}

// GetTickmap returns the chunk range [from, to] of poolKey's tickmap,
// capped at MaxTickmapQuerySize chunks.
func (e *Engine) GetTickmap(poolKey pool.PoolKey, from, to uint16) TickmapPage {
	tm := e.Store.GetTickmap(poolKey.Key())
	out := make(map[uint16]uint64)
	count := 0
	for c := from; c <= to; c++ {
		if count >= MaxTickmapQuerySize {
			break
		}
		if word, ok := tm.Bitmap[c]; ok && word != 0 {
			out[c] = word
			count++
		}
		if c == to {
			break
		}
	}
	return TickmapPage{Chunks: out}
}

// GetLiquidityTicks returns the stored tick record for each requested
// index, capped at LiquidityTickLimit entries.
func (e *Engine) GetLiquidityTicks(poolKey pool.PoolKey, indexes []int32) ([]tick.Tick, error) {
	key := poolKey.Key()
	if len(indexes) > LiquidityTickLimit {
		indexes = indexes[:LiquidityTickLimit]
	}
	out := make([]tick.Tick, 0, len(indexes))
	for _, idx := range indexes {
		t, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: idx})
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetLiquidityTicksAmount counts how many spacing-aligned ticks in
// [from, to] are initialized, letting a caller size its GetLiquidityTicks
// pagination.
func (e *Engine) GetLiquidityTicksAmount(poolKey pool.PoolKey, from, to int32) int {
	tm := e.Store.GetTickmap(poolKey.Key())
	spacing := poolKey.FeeTier.TickSpacing
	count := 0
	for idx := from; idx <= to; idx += int32(spacing) {
		if ok, err := tm.Get(idx, spacing); err == nil && ok {
			count++
		}
	}
	return count
}

// PositionTicks is the pair of bounding tick records for one position.
type PositionTicks struct {
	Lower tick.Tick
	Upper tick.Tick
}

// GetPositionTicks returns the bounding tick pair for every position of
// owner starting at offset.
func (e *Engine) GetPositionTicks(owner solana.PublicKey, offset uint32) ([]PositionTicks, error) {
	positions := e.ListPositions(owner, offset, 0)
	out := make([]PositionTicks, 0, len(positions))
	for _, p := range positions {
		key := p.PoolKey.Key()
		lower, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: p.LowerTickIndex})
		if err != nil {
			return nil, err
		}
		upper, err := storage.RequireTick(e.Store, storage.TickKey{Pool: key, Index: p.UpperTickIndex})
		if err != nil {
			return nil, err
		}
		out = append(out, PositionTicks{Lower: lower, Upper: upper})
	}
	return out, nil
}
