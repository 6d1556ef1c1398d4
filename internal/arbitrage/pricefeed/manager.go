// Package pricefeed implements the Price Data Manager (component B): a
// three-level latest-price store (chain -> dex -> pairKey -> update)
// plus a cross-chain, token-normalized indexed snapshot builder.
package pricefeed

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/tokennorm"
)

// Config holds the manager's tunables.
type Config struct {
	MaxPriceAgeMs int64 // default 5 minutes
}

// DefaultConfig returns the spec's documented default.
func DefaultConfig() Config {
	return Config{MaxPriceAgeMs: 5 * 60 * 1000}
}

// Manager is the Price Data Manager.
type Manager struct {
	cfg Config
	log *logger.Logger

	mu      sync.Mutex
	byChain map[string]map[string]map[string]model.PriceUpdate
	count   int64
}

// New constructs a Manager.
func New(cfg Config, log *logger.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		log:     log.WithField("component", "price-data-manager"),
		byChain: make(map[string]map[string]map[string]model.PriceUpdate),
	}
}

// HandleUpdate upserts update into the three-level store and, every
// 100th call, evicts entries older than MaxPriceAgeMs.
func (m *Manager) HandleUpdate(update model.PriceUpdate) {
	update.PairAddress = normalizePairAddress(update.PairAddress)

	m.mu.Lock()
	defer m.mu.Unlock()

	dexes, ok := m.byChain[update.Chain]
	if !ok {
		dexes = make(map[string]map[string]model.PriceUpdate)
		m.byChain[update.Chain] = dexes
	}
	pairs, ok := dexes[update.Dex]
	if !ok {
		pairs = make(map[string]model.PriceUpdate)
		dexes[update.Dex] = pairs
	}
	pairs[update.PairKey] = update

	m.count++
	if m.count%100 == 0 {
		m.cleanupLocked(update.TimestampMs)
	}
}

func (m *Manager) cleanupLocked(nowMs int64) {
	cutoff := nowMs - m.cfg.MaxPriceAgeMs
	for chain, dexes := range m.byChain {
		for dex, pairs := range dexes {
			for pairKey, upd := range pairs {
				if upd.TimestampMs < cutoff {
					delete(pairs, pairKey)
				}
			}
			if len(pairs) == 0 {
				delete(dexes, dex)
			}
		}
		if len(dexes) == 0 {
			delete(m.byChain, chain)
		}
	}
}

// CreateSnapshot returns a flat, point-in-time copy of every latest
// price currently held.
func (m *Manager) CreateSnapshot() []model.PricePoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.PricePoint
	for chain, dexes := range m.byChain {
		for dex, pairs := range dexes {
			for pairKey, upd := range pairs {
				out = append(out, model.PricePoint{
					Chain:   chain,
					Dex:     dex,
					PairKey: pairKey,
					Price:   upd.Price,
					Update:  upd,
				})
			}
		}
	}
	return out
}

// CreateIndexedSnapshot builds the multi-indexed, point-in-time snapshot
// used once per detection tick: a byToken index keyed by the normalized
// pair key, and a byChain index for the pending-intent path.
func (m *Manager) CreateIndexedSnapshot(nowMs int64) model.IndexedSnapshot {
	points := m.CreateSnapshot()

	snapshot := model.IndexedSnapshot{
		ByToken:     make(map[string][]model.PricePoint),
		ByChain:     make(map[string][]model.PricePoint),
		TimestampMs: nowMs,
	}

	seenPairs := make(map[string]struct{})
	for _, p := range points {
		if normalized, ok := tokennorm.NormalizedPairKey(p.PairKey); ok {
			snapshot.ByToken[normalized] = append(snapshot.ByToken[normalized], p)
		}
		snapshot.ByChain[p.Chain] = append(snapshot.ByChain[p.Chain], p)

		if _, dup := seenPairs[p.PairKey]; !dup {
			seenPairs[p.PairKey] = struct{}{}
			snapshot.TokenPairs = append(snapshot.TokenPairs, p.PairKey)
		}
	}

	return snapshot
}

// GetPairCount returns the total number of (chain, dex, pairKey) entries
// currently held.
func (m *Manager) GetPairCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, dexes := range m.byChain {
		for _, pairs := range dexes {
			total += len(pairs)
		}
	}
	return total
}

// GetChains returns the set of chains currently tracked.
func (m *Manager) GetChains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	chains := make([]string, 0, len(m.byChain))
	for chain := range m.byChain {
		chains = append(chains, chain)
	}
	return chains
}

// Clear removes all stored prices.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byChain = make(map[string]map[string]map[string]model.PriceUpdate)
	m.count = 0
}

// normalizePairAddress reformats a non-empty pair address into its
// canonical checksummed hex form, so the same pool reported with
// differing case never appears as two distinct entries. An unparseable
// address is dropped rather than stored malformed.
func normalizePairAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if !common.IsHexAddress(addr) {
		return ""
	}
	return common.HexToAddress(addr).Hex()
}
