package detector

import (
	"fmt"
	"time"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/bridgecost"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/confidence"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/mlpredict"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/pricefeed"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/publisher"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/streamconsumer"
)

// Config is the Detector Core's full configuration, composed of the
// per-component tunables plus the core's own scheduling and threshold
// knobs.
type Config struct {
	DetectionIntervalMs     int64
	HealthCheckIntervalMs   int64
	NativePriceIntervalMs   int64
	MaxPriceAgeMs           int64
	MinSpreadPercent        float64 // pre-filter before the full pipeline runs, default 0.5
	MinProfitPercentage     float64 // of the lowest price, default 0.2
	GasCostUsd              float64
	SwapFeePercent          float64
	MaxOpportunitiesPerTick int // default 10

	WhaleUsdThreshold     float64       // default 500,000
	WhaleNetFlowThreshold float64       // default 100,000
	WhaleCooldown         time.Duration // default 1s

	BridgeUpdateRateLimit  int           // default 10 updates
	BridgeUpdateRateWindow time.Duration // default 60s

	BreakerFailureThreshold int           // default 5
	BreakerCooldown         time.Duration // default 30s

	Bridge     bridgecost.Config
	PriceFeed  pricefeed.Config
	ML         mlpredict.Config
	Confidence confidence.Config
	Publisher  publisher.Config
	Stream     streamconsumer.Config
}

// DefaultConfig returns the spec's documented defaults for every knob the
// Detector Core owns directly; component configs are each component's own
// DefaultConfig().
func DefaultConfig() Config {
	return Config{
		DetectionIntervalMs:     2000,
		HealthCheckIntervalMs:   30000,
		NativePriceIntervalMs:   60000,
		MaxPriceAgeMs:           30000,
		MinSpreadPercent:        0.5,
		MinProfitPercentage:     0.2,
		GasCostUsd:              5,
		SwapFeePercent:          0.3,
		MaxOpportunitiesPerTick: 10,

		WhaleUsdThreshold:     500000,
		WhaleNetFlowThreshold: 100000,
		WhaleCooldown:         time.Second,

		BridgeUpdateRateLimit:  10,
		BridgeUpdateRateWindow: 60 * time.Second,

		BreakerFailureThreshold: 5,
		BreakerCooldown:         30 * time.Second,

		Bridge:     bridgecost.DefaultConfig(),
		PriceFeed:  pricefeed.DefaultConfig(),
		ML:         mlpredict.DefaultConfig(),
		Confidence: confidence.DefaultConfig(),
		Publisher:  publisher.DefaultConfig(),
		Stream:     streamconsumer.DefaultConfig(),
	}
}

// Validate rejects configurations the spec calls out as construction-time
// errors and logs (via the returned warnings) configurations that are
// merely suspicious.
func (c Config) Validate() (warnings []string, err error) {
	if c.DetectionIntervalMs < 10 {
		return nil, fmt.Errorf("detectionIntervalMs must be >= 10, got %d", c.DetectionIntervalMs)
	}
	if c.Publisher.DefaultTradeSizeUsd <= 0 && c.Bridge.DefaultTradeSizeUsd <= 0 {
		return nil, fmt.Errorf("defaultTradeSizeUsd must be > 0")
	}
	if err := c.Confidence.Validate(); err != nil {
		return nil, fmt.Errorf("confidence config: %w", err)
	}

	if c.ML.MaxLatency > time.Duration(c.DetectionIntervalMs)*time.Millisecond {
		warnings = append(warnings, "ml maxLatency exceeds detectionIntervalMs; ML prefetch may overrun a tick")
	}
	if c.HealthCheckIntervalMs < 5000 {
		warnings = append(warnings, "healthCheckIntervalMs below 5000ms is unusually aggressive")
	}
	return warnings, nil
}
