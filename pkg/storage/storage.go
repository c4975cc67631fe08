// Package storage provides the key/value persistence abstraction the
// engine reads and writes through — pools, ticks, tickmap chunks,
// positions, fee tiers and the global config — mirroring the host
// Storage trait the reference contract is compiled against.
//
// Grounded on the mutex-guarded map cache pattern in
// pkg/subscription/pool_cache.go, generalized from a single read-mostly
// pool cache into the full read/write store the engine needs.
package storage

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"soltrading/pkg/clmmerr"
	"soltrading/pkg/fixedpoint"
	"soltrading/pkg/pool"
	"soltrading/pkg/position"
	"soltrading/pkg/tick"
	"soltrading/pkg/tickmap"
)

// TickKey identifies one stored tick within a pool.
type TickKey struct {
	Pool  pool.Key
	Index int32
}

// PositionKey identifies one stored position by owner and insertion
// ordinal within that owner's list.
type PositionKey struct {
	Owner solana.PublicKey
	Index uint32
}

// Config is the single global record: the admin account and the
// protocol fee percentage. Fee tiers are stored separately.
type Config struct {
	Admin       solana.PublicKey
	ProtocolFee fixedpoint.Percentage
}

// Store is the full persistence surface the engine operates against.
// MemStore is the only implementation this module ships; a host
// embedding the engine in an on-chain program would back it with real
// account storage instead.
type Store interface {
	GetConfig() (Config, bool)
	SaveConfig(Config)

	GetFeeTier(key pool.FeeTierKey) (pool.FeeTier, bool)
	SaveFeeTier(pool.FeeTier)
	DeleteFeeTier(key pool.FeeTierKey)
	ListFeeTiers() []pool.FeeTier

	GetPool(key pool.Key) (pool.Pool, bool)
	SavePool(key pool.Key, p pool.Pool)
	ListPools() []PoolEntry

	GetTick(key TickKey) (tick.Tick, bool)
	SaveTick(key TickKey, t tick.Tick)
	DeleteTick(key TickKey)

	GetTickmap(key pool.Key) *tickmap.Tickmap

	GetPosition(key PositionKey) (position.Position, bool)
	SavePosition(key PositionKey, p position.Position)
	DeletePosition(key PositionKey)
	OwnerPositionCount(owner solana.PublicKey) uint32
	ListOwnerPositions(owner solana.PublicKey) []position.Position
}

// PoolEntry pairs a pool's flattened storage key with its state, the
// shape the Pools query lists every open pool as.
type PoolEntry struct {
	Key   pool.Key
	State pool.Pool
}

// MemStore is an in-process, mutex-guarded Store backed by plain maps —
// sufficient for the quote CLI and tests, and the shape a persistent
// backend would replace one map at a time.
type MemStore struct {
	mu sync.RWMutex

	config   Config
	hasConfig bool

	feeTiers map[pool.FeeTierKey]pool.FeeTier
	pools    map[pool.Key]pool.Pool
	ticks    map[TickKey]tick.Tick
	tickmaps map[pool.Key]*tickmap.Tickmap
	positions map[PositionKey]position.Position
	ownerCounts map[solana.PublicKey]uint32
}

func NewMemStore() *MemStore {
	return &MemStore{
		feeTiers:    make(map[pool.FeeTierKey]pool.FeeTier),
		pools:       make(map[pool.Key]pool.Pool),
		ticks:       make(map[TickKey]tick.Tick),
		tickmaps:    make(map[pool.Key]*tickmap.Tickmap),
		positions:   make(map[PositionKey]position.Position),
		ownerCounts: make(map[solana.PublicKey]uint32),
	}
}

func (s *MemStore) GetConfig() (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.hasConfig
}

func (s *MemStore) SaveConfig(c Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = c
	s.hasConfig = true
}

func (s *MemStore) GetFeeTier(key pool.FeeTierKey) (pool.FeeTier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ft, ok := s.feeTiers[key]
	return ft, ok
}

func (s *MemStore) SaveFeeTier(ft pool.FeeTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeTiers[ft.Key()] = ft
}

func (s *MemStore) DeleteFeeTier(key pool.FeeTierKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeTiers, key)
}

func (s *MemStore) ListFeeTiers() []pool.FeeTier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pool.FeeTier, 0, len(s.feeTiers))
	for _, ft := range s.feeTiers {
		out = append(out, ft)
	}
	return out
}

func (s *MemStore) GetPool(key pool.Key) (pool.Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[key]
	return p, ok
}

func (s *MemStore) SavePool(key pool.Key, p pool.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[key] = p
}

// ListPools returns every open pool, in no particular order.
func (s *MemStore) ListPools() []PoolEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PoolEntry, 0, len(s.pools))
	for k, p := range s.pools {
		out = append(out, PoolEntry{Key: k, State: p})
	}
	return out
}

func (s *MemStore) GetTick(key TickKey) (tick.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[key]
	return t, ok
}

func (s *MemStore) SaveTick(key TickKey, t tick.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[key] = t
}

func (s *MemStore) DeleteTick(key TickKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ticks, key)
}

// GetTickmap returns the tickmap for key, lazily creating an empty one
// on first reference (mirroring how a fresh pool starts with no
// initialized ticks at all).
func (s *MemStore) GetTickmap(key pool.Key) *tickmap.Tickmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	tm, ok := s.tickmaps[key]
	if !ok {
		tm = tickmap.New()
		s.tickmaps[key] = tm
	}
	return tm
}

func (s *MemStore) GetPosition(key PositionKey) (position.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[key]
	return p, ok
}

func (s *MemStore) SavePosition(key PositionKey, p position.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.positions[key]; !exists {
		s.ownerCounts[key.Owner]++
	}
	s.positions[key] = p
}

func (s *MemStore) DeletePosition(key PositionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.positions[key]; exists {
		delete(s.positions, key)
		if s.ownerCounts[key.Owner] > 0 {
			s.ownerCounts[key.Owner]--
		}
	}
}

func (s *MemStore) OwnerPositionCount(owner solana.PublicKey) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerCounts[owner]
}

func (s *MemStore) ListOwnerPositions(owner solana.PublicKey) []position.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.ownerCounts[owner]
	out := make([]position.Position, 0, n)
	for i := uint32(0); i < n; i++ {
		if p, ok := s.positions[PositionKey{Owner: owner, Index: i}]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ErrNotFound-style helpers used by callers that want a typed error
// instead of the raw (value, bool) form.
func RequirePool(s Store, key pool.Key) (pool.Pool, error) {
	p, ok := s.GetPool(key)
	if !ok {
		return pool.Pool{}, clmmerr.New(clmmerr.PoolNotFound, "pool not found")
	}
	return p, nil
}

func RequireTick(s Store, key TickKey) (tick.Tick, error) {
	t, ok := s.GetTick(key)
	if !ok {
		return tick.Tick{}, clmmerr.New(clmmerr.TickNotFound, "tick not found")
	}
	return t, nil
}

func RequirePosition(s Store, key PositionKey) (position.Position, error) {
	p, ok := s.GetPosition(key)
	if !ok {
		return position.Position{}, clmmerr.New(clmmerr.PositionNotFound, "position not found")
	}
	return p, nil
}

func RequireFeeTier(s Store, key pool.FeeTierKey) (pool.FeeTier, error) {
	ft, ok := s.GetFeeTier(key)
	if !ok {
		return pool.FeeTier{}, clmmerr.New(clmmerr.FeeTierNotFound, "fee tier not found")
	}
	return ft, nil
}
