package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

func newTestDetector(t *testing.T, stream *fakeStreamClient) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DetectionIntervalMs = 50
	cfg.HealthCheckIntervalMs = 60000
	cfg.NativePriceIntervalMs = 60000
	cfg.MinSpreadPercent = 0.1
	cfg.MinProfitPercentage = 0.01
	cfg.GasCostUsd = 0
	cfg.SwapFeePercent = 0
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	cfg.Publisher.DefaultTradeSizeUsd = 1000

	det, err := New(cfg, Deps{StreamClient: stream}, logger.New("test"))
	require.NoError(t, err)
	det.bridge.UpdateNativePrice(2000)
	return det
}

func TestExtremePointsRequiresDifferentChains(t *testing.T) {
	points := []model.PricePoint{
		{Chain: "ethereum", Price: 100},
		{Chain: "ethereum", Price: 110},
		{Chain: "polygon", Price: 105},
	}
	lo, hi, ok := extremePoints(points)
	require.True(t, ok)
	assert.Equal(t, 100.0, lo.Price)
	assert.Equal(t, "polygon", hi.Chain)
	assert.Equal(t, 105.0, hi.Price)
}

func TestExtremePointsFailsWithSingleChain(t *testing.T) {
	points := []model.PricePoint{
		{Chain: "ethereum", Price: 100},
		{Chain: "ethereum", Price: 110},
	}
	_, _, ok := extremePoints(points)
	assert.False(t, ok)
}

func TestFindArbitrageRejectsStaleData(t *testing.T) {
	det := newTestDetector(t, newFakeStreamClient())
	nowMs := model.NowMs()
	points := []model.PricePoint{
		{Chain: "ethereum", Dex: "uniswap_v3", PairKey: "uniswap_v3_WETH_USDC", Price: 2000,
			Update: model.PriceUpdate{Chain: "ethereum", Price: 2000, TimestampMs: nowMs - 60_000}},
		{Chain: "polygon", Dex: "quickswap", PairKey: "quickswap_WETH_USDC", Price: 2100,
			Update: model.PriceUpdate{Chain: "polygon", Price: 2100, TimestampMs: nowMs}},
	}
	_, ok := det.findArbitrage(context.Background(), nowMs, "WETH_USDC", points, nil)
	assert.False(t, ok, "stale source price must be rejected before confidence scoring")
}

func TestFindArbitrageAcceptsProfitableSpread(t *testing.T) {
	det := newTestDetector(t, newFakeStreamClient())
	nowMs := model.NowMs()
	points := []model.PricePoint{
		{Chain: "ethereum", Dex: "uniswap_v3", PairKey: "uniswap_v3_WETH_USDC", Price: 2000,
			Update: model.PriceUpdate{Chain: "ethereum", Price: 2000, TimestampMs: nowMs}},
		{Chain: "polygon", Dex: "quickswap", PairKey: "quickswap_WETH_USDC", Price: 2100,
			Update: model.PriceUpdate{Chain: "polygon", Price: 2100, TimestampMs: nowMs}},
	}
	opp, ok := det.findArbitrage(context.Background(), nowMs, "WETH_USDC", points, nil)
	require.True(t, ok)
	assert.Equal(t, "ethereum", opp.SourceChain)
	assert.Equal(t, "polygon", opp.TargetChain)
	assert.Greater(t, opp.NetProfit, 0.0)
}

func TestDetectionTickPublishesOpportunity(t *testing.T) {
	stream := newFakeStreamClient()
	det := newTestDetector(t, stream)
	nowMs := model.NowMs()

	det.prices.HandleUpdate(model.PriceUpdate{Chain: "ethereum", Dex: "uniswap_v3", PairKey: "uniswap_v3_WETH_USDC", Price: 2000, TimestampMs: nowMs})
	det.prices.HandleUpdate(model.PriceUpdate{Chain: "polygon", Dex: "quickswap", PairKey: "quickswap_WETH_USDC", Price: 2100, TimestampMs: nowMs})

	require.NoError(t, det.detectionTick(context.Background()))
	assert.Equal(t, 1, stream.publishedCount("opportunities"))
}

func TestSortOpportunitiesWhaleFirstThenProfit(t *testing.T) {
	opps := []model.CrossChainOpportunity{
		{Token: "a", NetProfit: 10},
		{Token: "b", NetProfit: 50, WhaleTriggered: true},
		{Token: "c", NetProfit: 30},
	}
	sortOpportunities(opps)
	assert.Equal(t, "b", opps[0].Token)
	assert.Equal(t, "c", opps[1].Token)
	assert.Equal(t, "a", opps[2].Token)
}
