// Package detector implements the Detector Core (component G): it owns
// every other component's lifecycle, schedules the detection, health and
// native-price ticks, and wires the Stream Consumer's events into the
// whale- and pending-intent-triggered analysis paths.
package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/bridgecost"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/confidence"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/mlpredict"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/pricefeed"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/publisher"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/streamconsumer"
	"github.com/meridianlabs/xchain-arbitrage/internal/ratewindow"
)

// Deps are the Detector Core's external collaborators, all optional
// except StreamClient: a detector with no oracle/whale tracker/bridge
// predictor/ML predictor/chain registry still runs, with those code
// paths degrading gracefully per spec.md §4.G.
type Deps struct {
	StreamClient    model.StreamClient
	PriceOracle     model.PriceOracle
	WhaleTracker    model.WhaleTracker
	BridgePredictor model.BridgePredictor
	MLPredictor     model.MLPredictor
	ChainRegistry   model.ChainRegistry
}

// Detector is the Detector Core.
type Detector struct {
	cfg  Config
	deps Deps
	log  *logger.Logger

	state   *stateMachine
	breaker *tickBreaker

	bridge     *bridgecost.Estimator
	prices     *pricefeed.Manager
	ml         *mlpredict.Manager
	confidence *confidence.Calculator
	publish    *publisher.Publisher
	consumer   *streamconsumer.Consumer

	bridgeRate         *ratewindow.Window
	nativePriceHistory *ratewindow.RecentValues
	whaleCooldowns     *ratewindow.Window

	startedAtMs int64

	sf singleFlight

	stopNativeRefresh context.CancelFunc
}

// New constructs a Detector. Deps.StreamClient must be non-nil; every
// other dependency may be nil.
func New(cfg Config, deps Deps, log *logger.Logger) (*Detector, error) {
	if deps.StreamClient == nil {
		return nil, fmt.Errorf("detector: StreamClient dependency is required")
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("detector: invalid config: %w", err)
	}

	base := log.WithField("component", "detector-core")
	for _, w := range warnings {
		base.WithField("warning", w).Warn("detector config warning")
	}

	d := &Detector{
		cfg:  cfg,
		deps: deps,
		log:  base,

		state:   newStateMachine(),
		breaker: newTickBreaker(cfg.BreakerFailureThreshold, cfg.BreakerCooldown),

		bridge:     bridgecost.New(cfg.Bridge, deps.BridgePredictor, log),
		prices:     pricefeed.New(cfg.PriceFeed, log),
		ml:         mlpredict.New(cfg.ML, deps.MLPredictor, log),
		confidence: confidence.New(cfg.Confidence),
		publish:    publisher.New(cfg.Publisher, deps.StreamClient, log),

		bridgeRate:         ratewindow.New(cfg.BridgeUpdateRateLimit, cfg.BridgeUpdateRateWindow),
		nativePriceHistory: ratewindow.NewRecentValues(10),
		whaleCooldowns:     ratewindow.New(1, cfg.WhaleCooldown),
	}

	d.consumer = streamconsumer.New(cfg.Stream, deps.StreamClient, streamconsumer.Handlers{
		OnPriceUpdate:        d.handlePriceUpdate,
		OnWhaleTransaction:   d.handleWhaleTransaction,
		OnPendingOpportunity: d.handlePendingOpportunity,
		OnError: func(err error) {
			d.log.WithField("error", err.Error()).Warn("stream consumer error")
		},
	}, log)

	return d, nil
}

// Start brings every component up in dependency order: stream consumer
// groups first (fail fast if Redis is unreachable), then ML and whale
// tracker best-effort initialization, then the three schedules.
func (d *Detector) Start(ctx context.Context) error {
	return d.state.executeStart(func() error {
		if err := d.consumer.CreateConsumerGroups(ctx); err != nil {
			return fmt.Errorf("create consumer groups: %w", err)
		}
		d.consumer.Start(ctx)

		d.ml.Initialize() // non-fatal

		d.startedAtMs = model.NowMs()

		runCtx, cancel := context.WithCancel(context.Background())
		d.stopNativeRefresh = cancel
		go d.detectionLoop(runCtx)
		go d.healthLoop(runCtx)
		go d.nativePriceRefreshChain(runCtx, "ETH")

		d.log.Info("detector core started")
		return nil
	})
}

// Stop tears components down in reverse order, giving each a bounded
// window to disconnect cleanly.
func (d *Detector) Stop() error {
	return d.state.executeStop(func() error {
		if d.stopNativeRefresh != nil {
			d.stopNativeRefresh()
		}
		d.consumer.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.deps.StreamClient.Disconnect(ctx); err != nil {
			d.log.WithField("error", err.Error()).Warn("stream client disconnect failed")
		}
		if d.deps.BridgePredictor != nil {
			d.deps.BridgePredictor.Cleanup()
		}

		d.log.Info("detector core stopped")
		return nil
	})
}

// IsRunning reports whether the core is in the RUNNING state.
func (d *Detector) IsRunning() bool {
	return d.state.isRunning()
}

func (d *Detector) detectionLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(d.cfg.DetectionIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.sf.tryAcquire("detection") {
				continue
			}
			go func() {
				defer d.sf.release("detection")
				d.runDetectionTick(ctx)
			}()
		}
	}
}

func (d *Detector) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(d.cfg.HealthCheckIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.sf.tryAcquire("health") {
				continue
			}
			go func() {
				defer d.sf.release("health")
				d.runHealthTick(ctx)
			}()
		}
	}
}

func (d *Detector) handlePriceUpdate(update model.PriceUpdate) {
	d.prices.HandleUpdate(update)
	d.ml.TrackPriceUpdate(update)
	d.bridge.UpdateNativePrice(nativePriceHint(update))
}

// nativePriceHint opportunistically seeds the bridge estimator's cached
// native price from a WETH/ETH quote, when one happens to arrive on the
// price stream. It is a best-effort hint, not the canonical source — the
// native-price refresh chain remains authoritative.
func nativePriceHint(update model.PriceUpdate) float64 {
	if update.Token0 == "WETH" || update.Token0 == "ETH" || update.Token1 == "WETH" || update.Token1 == "ETH" {
		return update.Price
	}
	return 0
}
