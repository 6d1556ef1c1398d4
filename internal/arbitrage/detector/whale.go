package detector

import (
	"context"
	"math"
	"time"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/tokennorm"
)

func (d *Detector) handleWhaleTransaction(tx model.WhaleTransaction) {
	if d.deps.WhaleTracker != nil {
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.deps.WhaleTracker.RecordTransaction(recordCtx, tx); err != nil {
			d.log.WithField("error", err.Error()).Warn("whale tracker record failed")
		}
		cancel()
	}

	if !d.sf.tryAcquire("whale") {
		return
	}
	go func() {
		defer d.sf.release("whale")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.runWhaleAnalysis(ctx, tx)
	}()
}

func (d *Detector) runWhaleAnalysis(ctx context.Context, tx model.WhaleTransaction) {
	if d.deps.WhaleTracker == nil {
		return
	}

	summary, err := d.deps.WhaleTracker.GetActivitySummary(ctx, tx.Token, tx.Chain)
	if err != nil {
		d.log.WithField("error", err.Error()).Warn("whale activity summary failed")
		return
	}

	triggered := tx.UsdValue >= d.cfg.WhaleUsdThreshold || math.Abs(summary.NetFlowUsd) > d.cfg.WhaleNetFlowThreshold
	if !triggered {
		return
	}

	cooldownKey := tx.Token + ":" + tx.Chain
	if !d.whaleCooldowns.Allow(cooldownKey, time.Now()) {
		return
	}

	nowMs := model.NowMs()
	snapshot := d.prices.CreateIndexedSnapshot(nowMs)

	whaleCtx := &whaleContext{
		Summary:   &summary,
		TxHash:    tx.TransactionHash,
		Direction: tx.Direction,
		VolumeUsd: tx.UsdValue,
	}

	var opportunities []model.CrossChainOpportunity
	for normalizedToken, points := range snapshot.ByToken {
		if !tokennorm.MatchesToken(normalizedToken, tx.Token) {
			continue
		}
		if opp, ok := d.findArbitrage(ctx, nowMs, normalizedToken, points, whaleCtx); ok {
			opportunities = append(opportunities, opp)
		}
	}

	sortOpportunities(opportunities)
	for _, opp := range opportunities {
		if _, err := d.publish.Publish(ctx, opp); err != nil {
			d.log.WithFields(map[string]interface{}{"error": err.Error(), "token": opp.Token}).Warn("whale-triggered publish failed")
		}
	}
}
