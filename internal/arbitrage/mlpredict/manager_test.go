package mlpredict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

type stubPredictor struct {
	ready bool
	pred  model.Prediction
}

func (s stubPredictor) IsReady() bool { return s.ready }

func (s stubPredictor) PredictPrice(ctx context.Context, chain, pairKey string, recent []float64) (model.Prediction, error) {
	return s.pred, nil
}

func TestTrackPriceUpdateBoundsHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLength = 3
	m := New(cfg, nil, logger.New("test"))

	for i := 0; i < 5; i++ {
		m.TrackPriceUpdate(model.PriceUpdate{Chain: "ethereum", PairKey: "p", Price: float64(i), TimestampMs: 1})
	}

	history := m.historySnapshot("ethereum", "p")
	require.Len(t, history, 3)
	assert.Equal(t, []float64{2, 3, 4}, history)
}

func TestPrefetchPredictionsCachesResult(t *testing.T) {
	predictor := stubPredictor{ready: true, pred: model.Prediction{Direction: model.PredictionUp, Confidence: 0.8}}
	m := New(DefaultConfig(), predictor, logger.New("test"))
	require.True(t, m.Initialize())

	results := m.PrefetchPredictions(context.Background(), []PricePoint{{Chain: "ethereum", PairKey: "p", Price: 100}})
	require.Contains(t, results, "ethereum:p")
	assert.Equal(t, model.PredictionUp, results["ethereum:p"].Direction)

	cached, ok := m.GetCachedPrediction("ethereum", "p")
	require.True(t, ok)
	assert.Equal(t, 0.8, cached.Confidence)
}

func TestGetCachedPredictionExpires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PredictionTTL = time.Millisecond
	predictor := stubPredictor{ready: true, pred: model.Prediction{Direction: model.PredictionDown, Confidence: 0.5}}
	m := New(cfg, predictor, logger.New("test"))

	m.PrefetchPredictions(context.Background(), []PricePoint{{Chain: "bsc", PairKey: "p", Price: 1}})
	time.Sleep(5 * time.Millisecond)

	_, ok := m.GetCachedPrediction("bsc", "p")
	assert.False(t, ok)
}

func TestInitializeNonFatalWithoutPredictor(t *testing.T) {
	m := New(DefaultConfig(), nil, logger.New("test"))
	assert.False(t, m.Initialize())
	assert.False(t, m.IsReady())
}
