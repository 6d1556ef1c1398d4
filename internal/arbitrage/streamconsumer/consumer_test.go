package streamconsumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// fakeStreamClient is an in-memory model.StreamClient used only to
// exercise the Consumer's validation/dispatch/ack behavior.
type fakeStreamClient struct {
	mu      sync.Mutex
	pending map[string][]model.StreamMessage
	acked   []string
	nextID  int
}

func newFakeStreamClient() *fakeStreamClient {
	return &fakeStreamClient{pending: make(map[string][]model.StreamMessage)}
}

func (f *fakeStreamClient) seed(stream string, values map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.pending[stream] = append(f.pending[stream], model.StreamMessage{
		Stream: stream,
		ID:     string(rune('a' + f.nextID)),
		Values: values,
	})
}

func (f *fakeStreamClient) CreateConsumerGroup(ctx context.Context, stream, group, startID string) error {
	return nil
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, group, consumer string, streams []string, count int64, block int64) ([]model.StreamMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StreamMessage
	for _, s := range streams {
		msgs := f.pending[s]
		f.pending[s] = nil
		out = append(out, msgs...)
	}
	return out, nil
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return nil
}

func (f *fakeStreamClient) XAddWithLimit(ctx context.Context, stream string, payload map[string]interface{}, cap int64) (string, error) {
	return "1-0", nil
}
func (f *fakeStreamClient) Disconnect(ctx context.Context) error                { return nil }
func (f *fakeStreamClient) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeStreamClient) Set(ctx context.Context, key, value string, ttlMs int64) error {
	return nil
}
func (f *fakeStreamClient) Del(ctx context.Context, key string) error           { return nil }
func (f *fakeStreamClient) Scan(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}

func (f *fakeStreamClient) ackedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acked)
}

func TestConsumerDispatchesValidPriceUpdate(t *testing.T) {
	client := newFakeStreamClient()
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond

	received := make(chan model.PriceUpdate, 1)
	c := New(cfg, client, Handlers{
		OnPriceUpdate: func(u model.PriceUpdate) { received <- u },
	}, logger.New("test"))

	client.seed("price-updates", map[string]interface{}{
		"chain": "ethereum", "dex": "uniswap_v3", "pairKey": "uniswap_v3_WETH_USDC",
		"price": "2500", "timestamp": "1000",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	select {
	case u := <-received:
		assert.Equal(t, "ethereum", u.Chain)
		assert.Equal(t, 2500.0, u.Price)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for price update")
	}

	require.Eventually(t, func() bool { return client.ackedCount() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestConsumerAcksAndDropsInvalidMessage(t *testing.T) {
	client := newFakeStreamClient()
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond

	called := false
	c := New(cfg, client, Handlers{
		OnPriceUpdate: func(u model.PriceUpdate) { called = true },
	}, logger.New("test"))

	client.seed("price-updates", map[string]interface{}{"chain": "ethereum"}) // missing pairKey/price/timestamp

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	require.Eventually(t, func() bool { return client.ackedCount() >= 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, called)
}

func TestConsumerNameIsUnique(t *testing.T) {
	client := newFakeStreamClient()
	c1 := New(DefaultConfig(), client, Handlers{}, logger.New("test"))
	assert.Contains(t, c1.ConsumerName(), "cross-chain-")
}
