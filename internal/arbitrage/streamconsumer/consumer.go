package streamconsumer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// StreamSpec names one input stream and its poll batch size.
type StreamSpec struct {
	Name  string
	Batch int64
}

// Config holds the consumer's tunables. Stream names and batch sizes
// are fixed by spec.md §4.F/§6; PollInterval is the only knob callers
// might reasonably override (e.g. in tests).
type Config struct {
	Group                string
	StartID              string
	PollInterval         time.Duration
	PriceUpdatesStream   StreamSpec
	WhaleAlertsStream    StreamSpec
	PendingOppsStream    StreamSpec
}

// DefaultConfig returns the spec's documented stream topology.
func DefaultConfig() Config {
	return Config{
		Group:              "cross-chain-detector-group",
		StartID:            "$",
		PollInterval:       100 * time.Millisecond,
		PriceUpdatesStream: StreamSpec{Name: "price-updates", Batch: 50},
		WhaleAlertsStream:  StreamSpec{Name: "whale-alerts", Batch: 10},
		PendingOppsStream:  StreamSpec{Name: "pending-opportunities", Batch: 5},
	}
}

// Handlers are the event-style callbacks invoked per validated message.
// Any handler left nil silently drops messages of that kind (after ack).
type Handlers struct {
	OnPriceUpdate        func(model.PriceUpdate)
	OnWhaleTransaction   func(model.WhaleTransaction)
	OnPendingOpportunity func(model.PendingSwapIntent)
	OnError              func(error)
}

// Consumer is the Stream Consumer (component F).
type Consumer struct {
	cfg      Config
	client   model.StreamClient
	handlers Handlers
	log      *logger.Logger
	name     string

	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	running bool
}

// New constructs a Consumer with a process-unique consumer name
// ("cross-chain-{hostname}-{startedAtMs}").
func New(cfg Config, client model.StreamClient, handlers Handlers, log *logger.Logger) *Consumer {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown-host"
	}
	return &Consumer{
		cfg:      cfg,
		client:   client,
		handlers: handlers,
		log:      log.WithField("component", "stream-consumer"),
		name:     fmt.Sprintf("cross-chain-%s-%d", hostname, time.Now().UnixMilli()),
	}
}

// ConsumerName returns this instance's derived unique consumer name.
func (c *Consumer) ConsumerName() string {
	return c.name
}

func (c *Consumer) specs() []StreamSpec {
	return []StreamSpec{c.cfg.PriceUpdatesStream, c.cfg.WhaleAlertsStream, c.cfg.PendingOppsStream}
}

// CreateConsumerGroups ensures the consumer group exists on every input
// stream.
func (c *Consumer) CreateConsumerGroups(ctx context.Context) error {
	for _, s := range c.specs() {
		if err := c.client.CreateConsumerGroup(ctx, s.Name, c.cfg.Group, c.cfg.StartID); err != nil {
			return fmt.Errorf("stream %s: %w", s.Name, err)
		}
	}
	return nil
}

// Start begins the per-stream poll loops. Each stream polls
// independently so a slow consumer on one stream never starves another.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	for _, s := range c.specs() {
		c.wg.Add(1)
		go c.pollLoop(ctx, s)
	}
}

// Stop halts all poll loops. It is idempotent.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
}

// RemoveAllListeners clears every registered handler.
func (c *Consumer) RemoveAllListeners() {
	c.handlers = Handlers{}
}

func (c *Consumer) pollLoop(ctx context.Context, spec StreamSpec) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(ctx, spec)
		}
	}
}

func (c *Consumer) pollOnce(ctx context.Context, spec StreamSpec) {
	msgs, err := c.client.XReadGroup(ctx, c.cfg.Group, c.name, []string{spec.Name}, spec.Batch, int64(c.cfg.PollInterval/time.Millisecond))
	if err != nil {
		c.emitError(fmt.Errorf("poll %s: %w", spec.Name, err))
		return
	}

	for _, msg := range msgs {
		c.handleMessage(ctx, spec, msg)
	}
}

// handleMessage validates one delivered message, dispatches it to the
// matching handler if valid, and always acknowledges — a poisoned
// message must never block the group (spec.md §4.F, §7).
func (c *Consumer) handleMessage(ctx context.Context, spec StreamSpec, msg model.StreamMessage) {
	var dispatchErr error

	switch spec.Name {
	case c.cfg.PriceUpdatesStream.Name:
		update, err := parsePriceUpdate(msg.Values)
		if err != nil {
			dispatchErr = err
		} else if c.handlers.OnPriceUpdate != nil {
			c.handlers.OnPriceUpdate(update)
		}
	case c.cfg.WhaleAlertsStream.Name:
		tx, err := parseWhaleTransaction(msg.Values)
		if err != nil {
			dispatchErr = err
		} else if c.handlers.OnWhaleTransaction != nil {
			c.handlers.OnWhaleTransaction(tx)
		}
	case c.cfg.PendingOppsStream.Name:
		intent, err := parsePendingSwapIntent(msg.Values)
		if err != nil {
			dispatchErr = err
		} else if c.handlers.OnPendingOpportunity != nil {
			c.handlers.OnPendingOpportunity(intent)
		}
	}

	if dispatchErr != nil {
		c.log.WithFields(map[string]interface{}{
			"stream": spec.Name,
			"id":     msg.ID,
			"error":  dispatchErr.Error(),
		}).Warn("dropping invalid message")
	}

	if err := c.client.XAck(ctx, spec.Name, c.cfg.Group, msg.ID); err != nil {
		c.emitError(fmt.Errorf("ack %s/%s: %w", spec.Name, msg.ID, err))
	}
}

func (c *Consumer) emitError(err error) {
	c.log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("stream consumer error")
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
}

func strField(values map[string]interface{}, key string) (string, bool) {
	v, ok := values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func floatField(values map[string]interface{}, key string) (float64, bool) {
	s, ok := strField(values, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func intField(values map[string]interface{}, key string) (int64, bool) {
	s, ok := strField(values, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
