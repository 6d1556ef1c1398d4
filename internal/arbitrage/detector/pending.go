package detector

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/tokennorm"
)

// maxSafeInteger mirrors the largest integer a float64 can represent
// exactly; a profit figure at or beyond it is treated as a parsing
// failure rather than a genuine opportunity.
var maxSafeInteger = big.NewInt(1<<53 - 1)

func (d *Detector) handlePendingOpportunity(intent model.PendingSwapIntent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.analyzePendingIntent(ctx, intent)
}

func (d *Detector) analyzePendingIntent(ctx context.Context, intent model.PendingSwapIntent) {
	if d.deps.ChainRegistry == nil {
		return
	}
	chain, ok := d.deps.ChainRegistry.ChainNameByID(intent.ChainID)
	if !ok {
		return
	}

	nowMs := model.NowMs()
	if intent.NormalizedDeadlineMs() < nowMs {
		return
	}

	impact := estimatePendingImpact(intent)
	if impact < 0.001 {
		return
	}

	snapshot := d.prices.CreateIndexedSnapshot(nowMs)
	anchor, ok := matchPendingDex(snapshot.ByChain[chain], intent)
	if !ok {
		return
	}

	predictedPrice := anchor.Price * (1 - impact)
	if predictedPrice <= 0 {
		return
	}

	normalizedKey, ok := tokennorm.NormalizedPairKey(anchor.PairKey)
	if !ok {
		return
	}

	var best model.PricePoint
	found := false
	for _, p := range snapshot.ByToken[normalizedKey] {
		if p.Chain == chain {
			continue
		}
		if !found || p.Price > best.Price {
			best = p
			found = true
		}
	}
	if !found || best.Price <= predictedPrice {
		return
	}

	netProfitUsd, ok := pendingNetProfitUsd(intent, predictedPrice, best.Price, d.cfg.GasCostUsd)
	if !ok || netProfitUsd <= d.cfg.MinProfitPercentage/100*predictedPrice {
		return
	}

	conf := d.confidence.Calculate(nowMs, best.Price, predictedPrice, anchor.Update.TimestampMs, nil, nil, nil)

	opp := model.CrossChainOpportunity{
		Token:           normalizedKey,
		SourceChain:     chain,
		SourceDex:       anchor.Dex,
		SourcePrice:     predictedPrice,
		TargetChain:     best.Chain,
		TargetDex:       best.Dex,
		TargetPrice:     best.Price,
		PriceDiff:       best.Price - predictedPrice,
		PercentageDiff:  (best.Price/predictedPrice - 1) * 100,
		EstimatedProfit: netProfitUsd + d.cfg.GasCostUsd,
		NetProfit:       netProfitUsd,
		Confidence:      conf,
		CreatedAtMs:     nowMs,
		PendingTxHash:   intent.Hash,
		PendingDeadline: intent.NormalizedDeadlineMs(),
		PendingSlippage: intent.SlippageTolerance,
	}

	if _, err := d.publish.Publish(ctx, opp); err != nil {
		d.log.WithFields(map[string]interface{}{"error": err.Error(), "hash": intent.Hash}).Warn("pending-intent publish failed")
	}
}

// estimatePendingImpact prefers a reserve-based constant-product estimate
// and falls back to the intent's own slippage tolerance, then its
// pre-computed estimate, when reserves are absent or unparseable.
func estimatePendingImpact(intent model.PendingSwapIntent) float64 {
	if intent.Reserve0 != "" && intent.Reserve1 != "" {
		if impact, ok := reserveImpact(intent.AmountIn, intent.Reserve0); ok {
			return impact
		}
	}
	if intent.EstimatedImpact != nil {
		return *intent.EstimatedImpact
	}
	return intent.SlippageTolerance
}

// reserveImpact estimates constant-product price impact
// amountIn / (reserveIn + amountIn) using fixed-width 256-bit unsigned
// arithmetic scaled to avoid precision loss on wei-sized reserves — the
// reserves and the trade amount are on-chain quantities and never
// negative, the same assumption go-ethereum's own EVM-word math makes.
func reserveImpact(amountInStr, reserveInStr string) (float64, bool) {
	amountIn, err := uint256.FromDecimal(amountInStr)
	if err != nil || amountIn.IsZero() {
		return 0, false
	}
	reserveIn, err := uint256.FromDecimal(reserveInStr)
	if err != nil || reserveIn.IsZero() {
		return 0, false
	}

	const scale = 1_000_000
	numerator, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(scale))
	if overflow {
		return 0, false
	}
	denominator := new(uint256.Int).Add(reserveIn, amountIn)
	scaledImpact := new(uint256.Int).Div(numerator, denominator)

	impact, _ := new(big.Float).SetInt(scaledImpact.ToBig()).Float64()
	return impact / scale, true
}

// matchPendingDex finds a price point on the intent's chain whose dex
// name shares a substring with the intent's router/type, falling back to
// any dex on that chain carrying a matching token leg.
func matchPendingDex(points []model.PricePoint, intent model.PendingSwapIntent) (model.PricePoint, bool) {
	hint := strings.ToLower(intent.Router + intent.Type)

	var fallback model.PricePoint
	haveFallback := false

	for _, p := range points {
		if !tokennorm.MatchesToken(p.PairKey, intent.TokenIn) && !tokennorm.MatchesToken(p.PairKey, intent.TokenOut) {
			continue
		}
		if !haveFallback {
			fallback = p
			haveFallback = true
		}
		if hint != "" && strings.Contains(strings.ToLower(p.Dex), hint) {
			return p, true
		}
	}
	return fallback, haveFallback
}

// pendingNetProfitUsd computes the USD profit of moving amountIn from the
// predicted post-trade source price to the best target price, using
// big.Int arithmetic on the wei-scale amountIn and rejecting results at
// or beyond maxSafeInteger as unparseable rather than real.
func pendingNetProfitUsd(intent model.PendingSwapIntent, sourcePrice, targetPrice, gasCostUsd float64) (float64, bool) {
	amountWei, ok := new(big.Int).SetString(intent.AmountIn, 10)
	if !ok || amountWei.Sign() <= 0 {
		return 0, false
	}
	if amountWei.CmpAbs(new(big.Int).Mul(maxSafeInteger, big.NewInt(1_000_000_000_000))) > 0 {
		return 0, false
	}

	weiPerToken := new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))
	amountTokens := new(big.Float).Quo(new(big.Float).SetInt(amountWei), weiPerToken)

	priceDiff := targetPrice - sourcePrice
	diffFloat := new(big.Float).SetFloat64(priceDiff)
	profit := new(big.Float).Mul(amountTokens, diffFloat)
	profit.Sub(profit, new(big.Float).SetFloat64(gasCostUsd))

	result, _ := profit.Float64()
	return result, true
}
