// Package bridgecost implements the Bridge Cost Estimator (component A):
// a three-rung cost ladder (learned predictor -> static table ->
// percentage fallback) producing a USD-denominated per-hop cost, plus a
// live cached native-token price used to convert USD costs into token
// units.
package bridgecost

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// StaticRoute is one entry of the configured source->target cost table.
type StaticRoute struct {
	FeeUsd         float64
	Bridge         string
	LatencySeconds float64
}

// Config holds the estimator's tunables.
type Config struct {
	MinPredictionConfidence float64 // default 0.3
	FallbackFeePct          float64 // default 0.1
	MinFallbackFeeUsd       float64 // default 2
	DefaultTradeSizeUsd     float64
	StaticRoutes            map[string]StaticRoute // key "source-target"
}

// DefaultConfig returns the spec's documented defaults with an empty
// static route table; callers populate StaticRoutes from their own
// configuration.
func DefaultConfig() Config {
	return Config{
		MinPredictionConfidence: 0.3,
		FallbackFeePct:          0.1,
		MinFallbackFeeUsd:       2,
		DefaultTradeSizeUsd:     10000,
		StaticRoutes:            map[string]StaticRoute{},
	}
}

// Estimator is the Bridge Cost Estimator.
type Estimator struct {
	cfg       Config
	predictor model.BridgePredictor // nil if none supplied; ladder skips to static table
	log       *logger.Logger

	mu             sync.RWMutex
	nativePriceUsd float64
}

// New constructs an Estimator. predictor may be nil.
func New(cfg Config, predictor model.BridgePredictor, log *logger.Logger) *Estimator {
	return &Estimator{
		cfg:       cfg,
		predictor: predictor,
		log:       log.WithField("component", "bridge-cost-estimator"),
	}
}

func routeKey(source, target string) string {
	return source + "-" + target
}

// UpdateNativePrice records the current native-token USD price. Rejected
// silently when non-positive or non-finite (conservative: keep the last
// good value rather than poison downstream estimates).
func (e *Estimator) UpdateNativePrice(usd float64) {
	if usd <= 0 || math.IsNaN(usd) || math.IsInf(usd, 0) {
		return
	}
	e.mu.Lock()
	e.nativePriceUsd = usd
	e.mu.Unlock()
}

// GetNativePrice returns the last accepted native-token USD price.
func (e *Estimator) GetNativePrice() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nativePriceUsd
}

// ExtractTokenAmount converts a USD trade size into token units at the
// update's current price, clamped to [1e-18, 1e12]. Returns 1.0 if price
// is non-positive.
func (e *Estimator) ExtractTokenAmount(update model.PriceUpdate, tradeSizeUsd float64) float64 {
	if update.Price <= 0 {
		return 1.0
	}
	if tradeSizeUsd <= 0 {
		tradeSizeUsd = e.cfg.DefaultTradeSizeUsd
	}
	amount := tradeSizeUsd / update.Price
	if amount < 1e-18 {
		return 1e-18
	}
	if amount > 1e12 {
		return 1e12
	}
	return amount
}

// DetailedEstimate runs the three-rung ladder and returns the tagged
// result.
func (e *Estimator) DetailedEstimate(ctx context.Context, sourceChain, targetChain string, update model.PriceUpdate) model.BridgeCostEstimate {
	amount := e.ExtractTokenAmount(update, 0)

	if est, ok := e.tryPredictor(ctx, sourceChain, targetChain, amount); ok {
		return est
	}

	if route, ok := e.cfg.StaticRoutes[routeKey(sourceChain, targetChain)]; ok {
		return model.BridgeCostEstimate{
			CostUsd:        route.FeeUsd,
			Source:         model.BridgeCostConfig,
			Bridge:         route.Bridge,
			LatencySeconds: route.LatencySeconds,
		}
	}

	tradeSize := e.cfg.DefaultTradeSizeUsd
	fallback := math.Max(tradeSize*e.cfg.FallbackFeePct/100, e.cfg.MinFallbackFeeUsd)
	return model.BridgeCostEstimate{
		CostUsd: fallback,
		Source:  model.BridgeCostFallback,
	}
}

func (e *Estimator) tryPredictor(ctx context.Context, sourceChain, targetChain string, amount float64) (model.BridgeCostEstimate, bool) {
	if e.predictor == nil {
		return model.BridgeCostEstimate{}, false
	}

	routes, err := e.predictor.GetAvailableRoutes(ctx, sourceChain, targetChain)
	if err != nil || len(routes) == 0 {
		return model.BridgeCostEstimate{}, false
	}

	pred, err := e.predictor.PredictOptimalBridge(ctx, sourceChain, targetChain, amount, "medium")
	if err != nil {
		e.log.WithField("error", err.Error()).Warn("bridge predictor call failed, falling back")
		return model.BridgeCostEstimate{}, false
	}
	if pred.Confidence <= e.cfg.MinPredictionConfidence {
		return model.BridgeCostEstimate{}, false
	}

	weiAmount, ok := parseDecimalString(pred.EstimatedCostWei)
	if !ok {
		return model.BridgeCostEstimate{}, false
	}
	nativeAmount := weiAmount / 1e18
	nativePrice := e.GetNativePrice()
	if nativePrice <= 0 {
		return model.BridgeCostEstimate{}, false
	}

	return model.BridgeCostEstimate{
		CostUsd:        nativeAmount * nativePrice,
		Source:         model.BridgeCostPredictor,
		Confidence:     pred.Confidence,
		Bridge:         pred.BridgeName,
		LatencySeconds: pred.EstimatedLatencySeconds,
	}, true
}

// parseDecimalString parses a base-10 integer string (wei amount) into a
// float64. It deliberately tolerates only digits; anything else is
// treated as an unusable predictor response.
func parseDecimalString(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Estimate returns the bridge cost expressed in token units
// (costUsd / tokenPrice), or costUsd unchanged if the token's price is
// non-positive or non-finite — a documented conservative over-estimate
// (spec.md §9).
func (e *Estimator) Estimate(ctx context.Context, sourceChain, targetChain string, update model.PriceUpdate) float64 {
	est := e.DetailedEstimate(ctx, sourceChain, targetChain, update)
	if update.Price <= 0 || math.IsNaN(update.Price) || math.IsInf(update.Price, 0) {
		return est.CostUsd
	}
	return est.CostUsd / update.Price
}
