package detector

import (
	"context"
	"sync"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// fakeStreamClient is an in-memory model.StreamClient recording every
// published payload, keyed by stream name.
type fakeStreamClient struct {
	mu        sync.Mutex
	published map[string][]map[string]interface{}
	kv        map[string]string
}

func newFakeStreamClient() *fakeStreamClient {
	return &fakeStreamClient{
		published: make(map[string][]map[string]interface{}),
		kv:        make(map[string]string),
	}
}

func (f *fakeStreamClient) CreateConsumerGroup(ctx context.Context, stream, group, startID string) error {
	return nil
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, group, consumer string, streams []string, count int64, block int64) ([]model.StreamMessage, error) {
	return nil, nil
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) error {
	return nil
}

func (f *fakeStreamClient) XAddWithLimit(ctx context.Context, stream string, payload map[string]interface{}, cap int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[stream] = append(f.published[stream], payload)
	return "1-0", nil
}

func (f *fakeStreamClient) Disconnect(ctx context.Context) error { return nil }

func (f *fakeStreamClient) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kv[key], nil
}

func (f *fakeStreamClient) Set(ctx context.Context, key, value string, ttlMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	return nil
}

func (f *fakeStreamClient) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.kv, key)
	return nil
}

func (f *fakeStreamClient) Scan(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}

func (f *fakeStreamClient) publishedCount(stream string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published[stream])
}

func (f *fakeStreamClient) last(stream string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.published[stream]
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

// fakeChainRegistry maps chainID to name via a fixed table.
type fakeChainRegistry struct {
	byID map[int64]string
}

func (r fakeChainRegistry) ChainNameByID(chainID int64) (string, bool) {
	name, ok := r.byID[chainID]
	return name, ok
}

// fakeWhaleTracker returns a fixed summary regardless of recorded input.
type fakeWhaleTracker struct {
	summary   model.WhaleActivitySummary
	recordErr error
}

func (f *fakeWhaleTracker) RecordTransaction(ctx context.Context, tx model.WhaleTransaction) error {
	return f.recordErr
}

func (f *fakeWhaleTracker) GetActivitySummary(ctx context.Context, token, chain string) (model.WhaleActivitySummary, error) {
	return f.summary, nil
}

// fakePriceOracle returns a fixed quote.
type fakePriceOracle struct {
	quote model.PriceQuote
	err   error
}

func (f *fakePriceOracle) GetPrice(ctx context.Context, symbol string) (model.PriceQuote, error) {
	return f.quote, f.err
}

// fakeMLPredictor is unused directly by these tests but satisfies the
// interface where a non-nil predictor is required.
type fakeMLPredictor struct {
	ready bool
}

func (f *fakeMLPredictor) IsReady() bool { return f.ready }

func (f *fakeMLPredictor) PredictPrice(ctx context.Context, chain, pairKey string, recentPrices []float64) (model.Prediction, error) {
	return model.Prediction{Direction: model.PredictionUp, Confidence: 0.9}, nil
}
