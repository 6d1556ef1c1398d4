package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

type fakeBridgePredictor struct {
	updates []model.BridgeModelUpdate
}

func (f *fakeBridgePredictor) GetAvailableRoutes(ctx context.Context, sourceChain, targetChain string) ([]model.BridgeRoute, error) {
	return nil, nil
}
func (f *fakeBridgePredictor) PredictOptimalBridge(ctx context.Context, sourceChain, targetChain string, amount float64, urgency string) (model.BridgePrediction, error) {
	return model.BridgePrediction{}, nil
}
func (f *fakeBridgePredictor) UpdateModel(ctx context.Context, update model.BridgeModelUpdate) error {
	f.updates = append(f.updates, update)
	return nil
}
func (f *fakeBridgePredictor) Cleanup() {}

func TestUpdateBridgeDataRejectsOutOfRangeLatency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	predictor := &fakeBridgePredictor{}
	det, err := New(cfg, Deps{StreamClient: newFakeStreamClient(), BridgePredictor: predictor}, logger.New("test"))
	require.NoError(t, err)

	err = det.UpdateBridgeData(context.Background(), "ethereum", "polygon", model.BridgeModelUpdate{
		Bridge: "hop", ActualLatencyMs: 0, ActualCostUsd: 1, TimestampMs: model.NowMs(),
	})
	assert.Error(t, err)
	assert.Empty(t, predictor.updates)
}

func TestUpdateBridgeDataAcceptsValidUpdate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	predictor := &fakeBridgePredictor{}
	det, err := New(cfg, Deps{StreamClient: newFakeStreamClient(), BridgePredictor: predictor}, logger.New("test"))
	require.NoError(t, err)

	err = det.UpdateBridgeData(context.Background(), "ethereum", "polygon", model.BridgeModelUpdate{
		Bridge: "hop", ActualLatencyMs: 5000, ActualCostUsd: 3, TimestampMs: model.NowMs(),
	})
	require.NoError(t, err)
	assert.Len(t, predictor.updates, 1)
}

func TestUpdateBridgeDataRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	cfg.BridgeUpdateRateLimit = 2
	predictor := &fakeBridgePredictor{}
	det, err := New(cfg, Deps{StreamClient: newFakeStreamClient(), BridgePredictor: predictor}, logger.New("test"))
	require.NoError(t, err)

	update := model.BridgeModelUpdate{Bridge: "hop", ActualLatencyMs: 1000, ActualCostUsd: 1, TimestampMs: model.NowMs()}
	require.NoError(t, det.UpdateBridgeData(context.Background(), "ethereum", "polygon", update))
	require.NoError(t, det.UpdateBridgeData(context.Background(), "ethereum", "polygon", update))
	assert.Error(t, det.UpdateBridgeData(context.Background(), "ethereum", "polygon", update))
}
