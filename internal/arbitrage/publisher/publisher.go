// Package publisher implements the Opportunity Publisher (component E):
// chain-pair-scoped deduplication, conversion of the internal
// opportunity record to the external wire form, and capped-length
// emission to the output stream.
package publisher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// Config holds the publisher's tunables.
type Config struct {
	DedupeWindowMs       int64   // default 5000
	MinProfitImprovement float64 // default 0.1
	MaxCacheSize         int     // default 1000
	CacheTTLMs           int64   // default 10 minutes
	OutputStreamCap      int64   // default 10000
	DefaultTradeSizeUsd  float64
	OutputStream         string // default "opportunities"
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		DedupeWindowMs:       5000,
		MinProfitImprovement: 0.1,
		MaxCacheSize:         1000,
		CacheTTLMs:           10 * 60 * 1000,
		OutputStreamCap:      10000,
		DefaultTradeSizeUsd:  10000,
		OutputStream:         "opportunities",
	}
}

// Publisher is the Opportunity Publisher.
type Publisher struct {
	cfg    Config
	stream model.StreamClient
	log    *logger.Logger

	mu    sync.Mutex
	cache map[string]model.DedupeEntry
}

// New constructs a Publisher. stream may be nil for tests that only
// exercise the dedupe decision, in which case Publish skips the write.
func New(cfg Config, stream model.StreamClient, log *logger.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg,
		stream: stream,
		log:    log.WithField("component", "opportunity-publisher"),
		cache:  make(map[string]model.DedupeEntry),
	}
}

func dedupeKey(opp model.CrossChainOpportunity) string {
	return opp.SourceChain + "-" + opp.TargetChain + "-" + opp.Token
}

// shouldPublish applies the dedupe decision in spec.md §4.E.
func (p *Publisher) shouldPublish(key string, opp model.CrossChainOpportunity) bool {
	prior, ok := p.cache[key]
	if !ok {
		return true
	}
	if opp.CreatedAtMs-prior.CreatedAtMs >= p.cfg.DedupeWindowMs {
		return true
	}

	oldProfit := prior.Opportunity.NetProfit
	newProfit := opp.NetProfit

	if oldProfit <= 0 && newProfit > 0 {
		return true
	}
	if newProfit <= 0 {
		return false
	}
	if oldProfit <= 0 {
		return false
	}

	improvement := (newProfit - oldProfit) / oldProfit
	return improvement >= p.cfg.MinProfitImprovement
}

// Publish applies the dedupe decision and, if the opportunity should be
// emitted, converts it to wire form and writes it to the output stream.
func (p *Publisher) Publish(ctx context.Context, opp model.CrossChainOpportunity) (bool, error) {
	key := dedupeKey(opp)

	p.mu.Lock()
	publish := p.shouldPublish(key, opp)
	if publish {
		p.cache[key] = model.DedupeEntry{Opportunity: opp, CreatedAtMs: opp.CreatedAtMs}
		p.cleanupLocked()
	}
	p.mu.Unlock()

	if !publish {
		return false, nil
	}

	if p.stream == nil {
		return true, nil
	}

	wire := ToWireForm(opp, p.cfg.DefaultTradeSizeUsd)
	payload := wirePayload(wire)
	if _, err := p.stream.XAddWithLimit(ctx, p.cfg.OutputStream, payload, p.cfg.OutputStreamCap); err != nil {
		p.log.WithFields(map[string]interface{}{"error": err.Error(), "id": wire.ID}).Warn("publish failed, dropping")
		return false, err
	}
	return true, nil
}

// cleanupLocked trims the dedupe cache once it exceeds MaxCacheSize:
// first dropping entries older than CacheTTLMs, then trimming oldest
// first down to the cap if still over. Caller must hold p.mu.
func (p *Publisher) cleanupLocked() {
	if len(p.cache) <= p.cfg.MaxCacheSize {
		return
	}

	now := model.NowMs()
	for k, e := range p.cache {
		if now-e.CreatedAtMs > p.cfg.CacheTTLMs {
			delete(p.cache, k)
		}
	}

	if len(p.cache) <= p.cfg.MaxCacheSize {
		return
	}

	type keyed struct {
		key       string
		createdAt int64
	}
	entries := make([]keyed, 0, len(p.cache))
	for k, e := range p.cache {
		entries = append(entries, keyed{key: k, createdAt: e.CreatedAtMs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].createdAt < entries[j].createdAt })

	excess := len(p.cache) - p.cfg.MaxCacheSize
	for i := 0; i < excess; i++ {
		delete(p.cache, entries[i].key)
	}
}

// CacheSize returns the current dedupe cache size.
func (p *Publisher) CacheSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// ToWireForm converts an internal opportunity to its external wire form
// per spec.md §4.E.
func ToWireForm(opp model.CrossChainOpportunity, defaultTradeSizeUsd float64) model.ArbitrageOpportunity {
	parts := strings.SplitN(opp.Token, "/", 2)
	tokenIn, tokenOut := opp.Token, ""
	if len(parts) == 2 {
		tokenIn, tokenOut = parts[0], parts[1]
	}

	price := opp.SourcePrice
	if price < 1 {
		price = 1
	}

	amountTokens := decimal.NewFromFloat(defaultTradeSizeUsd).Div(decimal.NewFromFloat(price))
	tokenCap := decimal.NewFromInt(1_000_000_000_000) // 1e12
	if amountTokens.GreaterThan(tokenCap) {
		amountTokens = tokenCap
	}
	amountWei := amountTokens.Mul(decimal.NewFromInt(1_000_000_000_000_000_000)).Floor()

	amountTokensFloat, _ := amountTokens.Float64()

	return model.ArbitrageOpportunity{
		ID:               generateID(),
		Type:             "cross-chain",
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		BuyDex:           opp.SourceDex,
		SellDex:          opp.TargetDex,
		BuyChain:         opp.SourceChain,
		SellChain:        opp.TargetChain,
		AmountIn:         amountWei.String(),
		ExpectedProfit:   (opp.PercentageDiff / 100) * amountTokensFloat,
		ProfitPercentage: opp.PercentageDiff / 100,
		BridgeRequired:   true,
		BridgeCost:       opp.BridgeCost,
		CreatedAtMs:      opp.CreatedAtMs,
	}
}

func generateID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 9 {
		raw = raw[:9]
	}
	return fmt.Sprintf("cross-chain-%d-%s", time.Now().UnixMilli(), raw)
}

func wirePayload(w model.ArbitrageOpportunity) map[string]interface{} {
	return map[string]interface{}{
		"id":               w.ID,
		"type":             w.Type,
		"tokenIn":          w.TokenIn,
		"tokenOut":         w.TokenOut,
		"buyDex":           w.BuyDex,
		"sellDex":          w.SellDex,
		"buyChain":         w.BuyChain,
		"sellChain":        w.SellChain,
		"amountIn":         w.AmountIn,
		"expectedProfit":   formatFloat(w.ExpectedProfit),
		"profitPercentage": formatFloat(w.ProfitPercentage),
		"bridgeRequired":   w.BridgeRequired,
		"bridgeCost":       formatFloat(w.BridgeCost),
		"createdAt":        w.CreatedAtMs,
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return fmt.Sprintf("%g", v)
}
