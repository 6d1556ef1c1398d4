// Package mlpredict implements the ML Prediction Manager (component C):
// a rolling per-pair price history, a parallel prefetch of directional
// predictions bounded by a per-call timeout, and a short-lived result
// cache. The predictor's internals are an external collaborator
// (model.MLPredictor); this manager only orchestrates calling it.
package mlpredict

import (
	"context"
	"sync"
	"time"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// PricePoint is the minimal tuple prefetch needs per pair.
type PricePoint struct {
	Chain   string
	PairKey string
	Price   float64
}

// Config holds the manager's tunables.
type Config struct {
	HistoryLength   int           // default 100 samples per key
	MaxKeys         int           // default 10,000 keys
	HistoryTTL      time.Duration // default 10 minutes
	MaxLatency      time.Duration // default 50ms, per predictor call
	PredictionTTL   time.Duration // default 1s
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		HistoryLength: 100,
		MaxKeys:       10000,
		HistoryTTL:    10 * time.Minute,
		MaxLatency:    50 * time.Millisecond,
		PredictionTTL: time.Second,
	}
}

type historyEntry struct {
	prices     []float64
	lastTouch  time.Time
}

type cacheEntry struct {
	prediction model.Prediction
	expiresAt  time.Time
}

// Manager is the ML Prediction Manager.
type Manager struct {
	cfg       Config
	predictor model.MLPredictor
	log       *logger.Logger

	mu      sync.Mutex
	history map[string]*historyEntry
	cache   map[string]cacheEntry
	ready   bool
}

// New constructs a Manager. predictor may be nil, in which case the
// manager never becomes ready and prefetch always returns empty.
func New(cfg Config, predictor model.MLPredictor, log *logger.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		predictor: predictor,
		log:       log.WithField("component", "ml-prediction-manager"),
		history:   make(map[string]*historyEntry),
		cache:     make(map[string]cacheEntry),
	}
}

func key(chain, pairKey string) string {
	return chain + ":" + pairKey
}

// Initialize checks predictor readiness. Failure is non-fatal: the
// manager simply reports IsReady()==false and detection continues
// without ML-adjusted confidence.
func (m *Manager) Initialize() bool {
	if m.predictor == nil {
		return false
	}
	ready := m.predictor.IsReady()
	m.mu.Lock()
	m.ready = ready
	m.mu.Unlock()
	if !ready {
		m.log.Warn("ML predictor not ready at initialization, continuing without it")
	}
	return ready
}

// IsReady reports whether the underlying predictor is usable.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// TrackPriceUpdate appends update's price to its rolling history,
// evicting the oldest sample past HistoryLength and enforcing the
// MaxKeys cap by dropping the least-recently-touched key.
func (m *Manager) TrackPriceUpdate(update model.PriceUpdate) {
	k := key(update.Chain, update.PairKey)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.history[k]
	if !ok {
		if len(m.history) >= m.cfg.MaxKeys {
			m.evictOldestLocked()
		}
		entry = &historyEntry{}
		m.history[k] = entry
	}
	entry.prices = append(entry.prices, update.Price)
	if len(entry.prices) > m.cfg.HistoryLength {
		entry.prices = entry.prices[len(entry.prices)-m.cfg.HistoryLength:]
	}
	entry.lastTouch = now
}

func (m *Manager) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for k, e := range m.history {
		if oldestKey == "" || e.lastTouch.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastTouch
		}
	}
	if oldestKey != "" {
		delete(m.history, oldestKey)
	}
}

func (m *Manager) historySnapshot(chain, pairKey string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.history[key(chain, pairKey)]
	if !ok {
		return nil
	}
	out := make([]float64, len(entry.prices))
	copy(out, entry.prices)
	return out
}

// PrefetchPredictions issues one predictor call per distinct
// (chain,pairKey) in pairs, each bounded by MaxLatency, in parallel, and
// caches results for PredictionTTL. Pairs whose predictor call fails or
// times out are simply absent from the returned map.
func (m *Manager) PrefetchPredictions(ctx context.Context, pairs []PricePoint) map[string]model.Prediction {
	result := make(map[string]model.Prediction)
	if m.predictor == nil {
		return result
	}

	seen := make(map[string]PricePoint)
	for _, p := range pairs {
		seen[key(p.Chain, p.PairKey)] = p
	}

	type outcome struct {
		key        string
		prediction model.Prediction
		ok         bool
	}
	out := make(chan outcome, len(seen))

	var wg sync.WaitGroup
	for k, p := range seen {
		wg.Add(1)
		go func(k string, p PricePoint) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, m.cfg.MaxLatency)
			defer cancel()

			history := m.historySnapshot(p.Chain, p.PairKey)
			pred, err := m.predictor.PredictPrice(callCtx, p.Chain, p.PairKey, history)
			if err != nil {
				out <- outcome{key: k, ok: false}
				return
			}
			out <- outcome{key: k, prediction: pred, ok: true}
		}(k, p)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	now := time.Now()
	m.mu.Lock()
	for o := range out {
		if !o.ok {
			continue
		}
		result[o.key] = o.prediction
		m.cache[o.key] = cacheEntry{prediction: o.prediction, expiresAt: now.Add(m.cfg.PredictionTTL)}
	}
	m.mu.Unlock()

	return result
}

// GetCachedPrediction returns the still-fresh prediction for a pair, if
// any.
func (m *Manager) GetCachedPrediction(chain, pairKey string) (model.Prediction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cache[key(chain, pairKey)]
	if !ok || time.Now().After(entry.expiresAt) {
		return model.Prediction{}, false
	}
	return entry.prediction, true
}

// Cleanup evicts history entries untouched for longer than HistoryTTL
// and expired cache entries.
func (m *Manager) Cleanup() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.history {
		if now.Sub(e.lastTouch) > m.cfg.HistoryTTL {
			delete(m.history, k)
		}
	}
	for k, e := range m.cache {
		if now.After(e.expiresAt) {
			delete(m.cache, k)
		}
	}
}

// Clear removes all history and cached predictions.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = make(map[string]*historyEntry)
	m.cache = make(map[string]cacheEntry)
}
