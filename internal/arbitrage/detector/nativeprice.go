package detector

import (
	"context"
	"math"
	"sort"
	"time"
)

// nativePriceRefreshChain maintains the bridge estimator's cached
// native-token price using a self-rescheduling timer chain rather than a
// ticker: the next refresh is only scheduled once the current one
// completes, so a slow oracle call never overlaps with itself.
func (d *Detector) nativePriceRefreshChain(ctx context.Context, symbol string) {
	if d.deps.PriceOracle == nil {
		return
	}

	interval := time.Duration(d.cfg.NativePriceIntervalMs) * time.Millisecond
	d.refreshNativePriceOnce(ctx, symbol)

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.refreshNativePriceOnce(ctx, symbol)
			timer.Reset(interval)
		}
	}
}

func (d *Detector) refreshNativePriceOnce(ctx context.Context, symbol string) {
	quote, err := d.deps.PriceOracle.GetPrice(ctx, symbol)
	if err != nil {
		d.log.WithField("error", err.Error()).Warn("native price refresh failed")
		return
	}
	if quote.IsStale {
		d.log.Warn("native price oracle returned a stale quote, skipping")
		return
	}
	if quote.Price < 100 || quote.Price > 100000 {
		d.log.WithField("price", quote.Price).Warn("native price outside sanity range, skipping")
		return
	}
	if !d.nativePriceWithinDeviation(quote.Price) {
		d.log.WithField("price", quote.Price).Warn("native price rejected by deviation breaker")
		return
	}

	d.nativePriceHistory.Add(quote.Price)
	d.bridge.UpdateNativePrice(quote.Price)
}

// nativePriceWithinDeviation rejects a new price once at least 3 samples
// are on hand if it deviates from their median by more than 20% — a
// single bad oracle tick should never poison bridge cost conversions.
func (d *Detector) nativePriceWithinDeviation(price float64) bool {
	values := d.nativePriceHistory.Values()
	if len(values) < 3 {
		return true
	}
	med := median(values)
	if med <= 0 {
		return true
	}
	return math.Abs(price-med)/med <= 0.2
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
