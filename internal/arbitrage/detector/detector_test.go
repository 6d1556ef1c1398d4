package detector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
)

func TestNewRejectsNilStreamClient(t *testing.T) {
	_, err := New(DefaultConfig(), Deps{}, logger.New("test"))
	assert.Error(t, err)
}

func TestDetectorStartStopLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetectionIntervalMs = 1000
	cfg.HealthCheckIntervalMs = 1000
	cfg.NativePriceIntervalMs = 60000
	cfg.Bridge.DefaultTradeSizeUsd = 1000

	det, err := New(cfg, Deps{StreamClient: newFakeStreamClient()}, logger.New("test"))
	require.NoError(t, err)

	require.NoError(t, det.Start(context.Background()))
	assert.True(t, det.IsRunning())

	require.NoError(t, det.Stop())
	assert.False(t, det.IsRunning())
}

func TestDetectorDoubleStopIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	det, err := New(cfg, Deps{StreamClient: newFakeStreamClient()}, logger.New("test"))
	require.NoError(t, err)
	require.NoError(t, det.Start(context.Background()))
	require.NoError(t, det.Stop())
	require.NoError(t, det.Stop())
}

func TestHealthTickPublishesRecordAndLegacyKey(t *testing.T) {
	stream := newFakeStreamClient()
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	det, err := New(cfg, Deps{StreamClient: stream}, logger.New("test"))
	require.NoError(t, err)
	det.startedAtMs = time.Now().UnixMilli() - 5000

	det.runHealthTick(context.Background())

	assert.Equal(t, 1, stream.publishedCount(healthStream))
	val, _ := stream.Get(context.Background(), legacyHealthKey)
	assert.NotEmpty(t, val)
}
