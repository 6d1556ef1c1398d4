package detector

import (
	"context"
	"fmt"
	"runtime"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

const (
	healthStream      = "health"
	healthStreamCap   = 1000
	legacyHealthKey   = "detector:health:latest"
	legacyHealthTTLMs = 0 // no expiry, overwritten each tick
)

func (d *Detector) runHealthTick(ctx context.Context) {
	record := d.buildHealthRecord()

	payload := healthPayload(record)
	if _, err := d.deps.StreamClient.XAddWithLimit(ctx, healthStream, payload, healthStreamCap); err != nil {
		d.log.WithField("error", err.Error()).Warn("health publish failed")
	}

	if err := d.deps.StreamClient.Set(ctx, legacyHealthKey, healthSummaryLine(record), legacyHealthTTLMs); err != nil {
		d.log.WithField("error", err.Error()).Warn("legacy health key write failed")
	}
}

func (d *Detector) buildHealthRecord() model.HealthRecord {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return model.HealthRecord{
		Name:               "cross-chain-detector",
		Status:             string(d.state.get()),
		UptimeSeconds:      float64(model.NowMs()-d.startedAtMs) / 1000,
		MemoryUsageBytes:   mem.Alloc,
		CPUUsagePercent:    0, // no per-process CPU sampler wired; left at zero rather than a misleading estimate
		LastHeartbeatMs:    model.NowMs(),
		ChainsMonitored:    len(d.prices.GetChains()),
		OpportunitiesCache: d.publish.CacheSize(),
		MLPredictorActive:  d.ml.IsReady(),
	}
}

func healthPayload(r model.HealthRecord) map[string]interface{} {
	return map[string]interface{}{
		"name":               r.Name,
		"status":             r.Status,
		"uptimeSeconds":      fmt.Sprintf("%.1f", r.UptimeSeconds),
		"memoryUsageBytes":   fmt.Sprintf("%d", r.MemoryUsageBytes),
		"cpuUsagePercent":    fmt.Sprintf("%.1f", r.CPUUsagePercent),
		"lastHeartbeat":      r.LastHeartbeatMs,
		"chainsMonitored":    r.ChainsMonitored,
		"opportunitiesCache": r.OpportunitiesCache,
		"mlPredictorActive":  r.MLPredictorActive,
	}
}

func healthSummaryLine(r model.HealthRecord) string {
	return fmt.Sprintf("%s:%s:%d", r.Name, r.Status, r.LastHeartbeatMs)
}
