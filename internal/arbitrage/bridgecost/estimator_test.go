package bridgecost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

func testEstimator(cfg Config) *Estimator {
	return New(cfg, nil, logger.New("test"))
}

func TestExtractTokenAmountClamped(t *testing.T) {
	e := testEstimator(DefaultConfig())
	update := model.PriceUpdate{Price: 2500}

	amt := e.ExtractTokenAmount(update, 100000)
	assert.InDelta(t, 40, amt, 0.0001)

	zeroPrice := model.PriceUpdate{Price: 0}
	assert.Equal(t, 1.0, e.ExtractTokenAmount(zeroPrice, 100))

	huge := e.ExtractTokenAmount(model.PriceUpdate{Price: 1e-20}, 1)
	assert.Equal(t, 1e12, huge)
}

func TestDetailedEstimateFallsBackToConfigTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaticRoutes["ethereum-bsc"] = StaticRoute{FeeUsd: 0.3, Bridge: "stargate", LatencySeconds: 60}
	e := testEstimator(cfg)

	est := e.DetailedEstimate(context.Background(), "ethereum", "bsc", model.PriceUpdate{Price: 2500})
	require.Equal(t, model.BridgeCostConfig, est.Source)
	assert.Equal(t, 0.3, est.CostUsd)
	assert.Equal(t, "stargate", est.Bridge)
}

func TestDetailedEstimateFallsBackToPercentage(t *testing.T) {
	e := testEstimator(DefaultConfig())
	est := e.DetailedEstimate(context.Background(), "ethereum", "arbitrum", model.PriceUpdate{Price: 2500})
	require.Equal(t, model.BridgeCostFallback, est.Source)
	assert.GreaterOrEqual(t, est.CostUsd, 2.0)
}

func TestUpdateNativePriceRejectsInvalid(t *testing.T) {
	e := testEstimator(DefaultConfig())
	e.UpdateNativePrice(3000)
	assert.Equal(t, 3000.0, e.GetNativePrice())

	e.UpdateNativePrice(-1)
	assert.Equal(t, 3000.0, e.GetNativePrice())

	e.UpdateNativePrice(0)
	assert.Equal(t, 3000.0, e.GetNativePrice())
}

func TestEstimateReturnsCostUsdWhenPriceNonPositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaticRoutes["ethereum-bsc"] = StaticRoute{FeeUsd: 5, Bridge: "x"}
	e := testEstimator(cfg)

	cost := e.Estimate(context.Background(), "ethereum", "bsc", model.PriceUpdate{Price: 0})
	assert.Equal(t, 5.0, cost)
}
