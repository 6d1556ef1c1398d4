package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestConfigValidateRejectsTooFastInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetectionIntervalMs = 1
	_, err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfigValidateRejectsMissingTradeSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 0
	cfg.Publisher.DefaultTradeSizeUsd = 0
	_, err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfigValidateWarnsOnAggressiveHealthInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.DefaultTradeSizeUsd = 1000
	cfg.HealthCheckIntervalMs = 1000
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
}
