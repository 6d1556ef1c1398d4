package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// UpdateBridgeData feeds an observed real bridge transfer outcome back
// into the learned predictor, rate-limited to 10 updates per 60s per
// (source, target, bridge) route so a misbehaving reporter can't flood
// the predictor's training loop.
func (d *Detector) UpdateBridgeData(ctx context.Context, sourceChain, targetChain string, update model.BridgeModelUpdate) error {
	if d.deps.BridgePredictor == nil {
		return nil
	}
	if err := validateBridgeUpdate(update); err != nil {
		return err
	}

	key := sourceChain + "-" + targetChain + "-" + update.Bridge
	if !d.bridgeRate.Allow(key, time.Now()) {
		return fmt.Errorf("bridge update rate limit exceeded for route %s", key)
	}

	return d.deps.BridgePredictor.UpdateModel(ctx, update)
}

func validateBridgeUpdate(update model.BridgeModelUpdate) error {
	if update.ActualLatencyMs <= 0 || update.ActualLatencyMs > 3_600_000 {
		return fmt.Errorf("actualLatencyMs out of range (0, 3600000]: %d", update.ActualLatencyMs)
	}
	if update.ActualCostUsd < 0 || update.ActualCostUsd > 1000 {
		return fmt.Errorf("actualCostUsd out of range [0,1000]: %f", update.ActualCostUsd)
	}
	if update.TimestampMs > model.NowMs()+60_000 {
		return fmt.Errorf("timestamp too far in the future: %d", update.TimestampMs)
	}
	return nil
}
