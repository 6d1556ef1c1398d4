package detector

import (
	"context"
	"sort"
	"time"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/mlpredict"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// whaleContext carries the triggering whale transaction's identity
// alongside the activity summary used for confidence scoring, so a
// whale-triggered opportunity can report which transaction caused it.
type whaleContext struct {
	Summary   *model.WhaleActivitySummary
	TxHash    string
	Direction model.WhaleDirection
	VolumeUsd float64
}

// runDetectionTick executes one detection pass behind the tick circuit
// breaker, recording the outcome.
func (d *Detector) runDetectionTick(ctx context.Context) {
	if !d.breaker.Allow(time.Now()) {
		return
	}
	if err := d.detectionTick(ctx); err != nil {
		d.breaker.RecordFailure(time.Now())
		d.log.WithField("error", err.Error()).Warn("detection tick failed")
		return
	}
	d.breaker.RecordSuccess()
}

func (d *Detector) detectionTick(ctx context.Context) error {
	nowMs := model.NowMs()
	snapshot := d.prices.CreateIndexedSnapshot(nowMs)

	candidates := make([]string, 0, len(snapshot.ByToken))
	for token, points := range snapshot.ByToken {
		lo, hi, ok := extremePoints(points)
		if !ok || lo.Price <= 0 {
			continue
		}
		spreadPct := (hi.Price/lo.Price - 1) * 100
		if spreadPct < d.cfg.MinSpreadPercent {
			continue
		}
		candidates = append(candidates, token)
	}

	if d.ml.IsReady() {
		var prefetch []mlpredict.PricePoint
		for _, token := range candidates {
			for _, p := range snapshot.ByToken[token] {
				prefetch = append(prefetch, mlpredict.PricePoint{Chain: p.Chain, PairKey: p.PairKey, Price: p.Price})
			}
		}
		d.ml.PrefetchPredictions(ctx, prefetch)
	}

	opportunities := make([]model.CrossChainOpportunity, 0, len(candidates))
	for _, token := range candidates {
		if opp, ok := d.findArbitrage(ctx, nowMs, token, snapshot.ByToken[token], nil); ok {
			opportunities = append(opportunities, opp)
		}
	}

	sortOpportunities(opportunities)
	if len(opportunities) > d.cfg.MaxOpportunitiesPerTick {
		opportunities = opportunities[:d.cfg.MaxOpportunitiesPerTick]
	}

	for _, opp := range opportunities {
		if _, err := d.publish.Publish(ctx, opp); err != nil {
			d.log.WithFields(map[string]interface{}{"error": err.Error(), "token": opp.Token}).Warn("publish failed")
		}
	}
	return nil
}

// extremePoints finds the lowest-priced point (lo) and, among points on a
// different chain than lo, the highest-priced point (hi) — two linear
// passes, so cross-chain arbitrage never matches two prices on the same
// chain.
func extremePoints(points []model.PricePoint) (lo, hi model.PricePoint, ok bool) {
	if len(points) < 2 {
		return lo, hi, false
	}

	lo = points[0]
	for _, p := range points[1:] {
		if p.Price < lo.Price {
			lo = p
		}
	}

	found := false
	for _, p := range points {
		if p.Chain == lo.Chain {
			continue
		}
		if !found || p.Price > hi.Price {
			hi = p
			found = true
		}
	}
	return lo, hi, found
}

// findArbitrage evaluates one token's cross-chain spread into an
// opportunity record, applying the hard staleness rejection before any
// confidence boost and the bridge/gas/fee-adjusted profit check.
func (d *Detector) findArbitrage(ctx context.Context, nowMs int64, token string, points []model.PricePoint, whale *whaleContext) (model.CrossChainOpportunity, bool) {
	lo, hi, ok := extremePoints(points)
	if !ok {
		return model.CrossChainOpportunity{}, false
	}
	if lo.AgeMs(nowMs) > d.cfg.MaxPriceAgeMs || hi.AgeMs(nowMs) > d.cfg.MaxPriceAgeMs {
		return model.CrossChainOpportunity{}, false
	}
	if lo.Price <= 0 || hi.Price <= lo.Price {
		return model.CrossChainOpportunity{}, false
	}

	tradeTokens := d.bridge.ExtractTokenAmount(lo.Update, d.cfg.Bridge.DefaultTradeSizeUsd)
	bridgeEstimate := d.bridge.DetailedEstimate(ctx, lo.Chain, hi.Chain, lo.Update)

	priceDiff := hi.Price - lo.Price
	percentageDiff := priceDiff / lo.Price * 100
	estimatedProfit := priceDiff * tradeTokens

	// Everything past this point is expressed per token, matching
	// priceDiff itself, rather than as a total-trade USD figure: two
	// trades of different size must clear the same per-token bar.
	bridgeCostPerToken := bridgeEstimate.CostUsd / tradeTokens
	gasPerToken := (d.cfg.GasCostUsd * 2) / tradeTokens
	feePercentage := d.cfg.SwapFeePercent / 100
	swapFeePerToken := feePercentage * (lo.Price + hi.Price)
	netProfit := priceDiff - bridgeCostPerToken - gasPerToken - swapFeePerToken

	if netProfit <= d.cfg.MinProfitPercentage/100*lo.Price {
		return model.CrossChainOpportunity{}, false
	}

	var sourcePred, targetPred *model.Prediction
	if pred, ok := d.ml.GetCachedPrediction(lo.Chain, lo.PairKey); ok {
		sourcePred = &pred
	}
	if pred, ok := d.ml.GetCachedPrediction(hi.Chain, hi.PairKey); ok {
		targetPred = &pred
	}

	var whaleSummary *model.WhaleActivitySummary
	if whale != nil {
		whaleSummary = whale.Summary
	}
	conf := d.confidence.Calculate(nowMs, hi.Price, lo.Price, lo.Update.TimestampMs, whaleSummary, sourcePred, targetPred)

	opp := model.CrossChainOpportunity{
		Token:           token,
		SourceChain:     lo.Chain,
		SourceDex:       lo.Dex,
		SourcePrice:     lo.Price,
		TargetChain:     hi.Chain,
		TargetDex:       hi.Dex,
		TargetPrice:     hi.Price,
		PriceDiff:       priceDiff,
		PercentageDiff:  percentageDiff,
		EstimatedProfit: estimatedProfit,
		BridgeCost:      bridgeEstimate.CostUsd,
		NetProfit:       netProfit,
		Confidence:      conf,
		CreatedAtMs:     nowMs,
	}

	if whale != nil {
		opp.WhaleTriggered = true
		opp.WhaleTxHash = whale.TxHash
		opp.WhaleDirection = whale.Direction
		opp.WhaleVolumeUsd = whale.VolumeUsd
	}
	if sourcePred != nil || targetPred != nil {
		opp.MLSupported = true
		opp.MLConfidenceBoost = conf
		if sourcePred != nil {
			opp.MLSourceDirection = sourcePred.Direction
		}
		if targetPred != nil {
			opp.MLTargetDirection = targetPred.Direction
		}
	}

	return opp, true
}

// sortOpportunities orders whale-triggered opportunities first, then by
// descending net profit, matching the publisher's priority for a
// capacity-limited tick.
func sortOpportunities(opps []model.CrossChainOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].WhaleTriggered != opps[j].WhaleTriggered {
			return opps[i].WhaleTriggered
		}
		return opps[i].NetProfit > opps[j].NetProfit
	})
}
