package model

import "context"

// PriceQuote is the price oracle's answer for a native-token symbol.
type PriceQuote struct {
	Price     float64
	IsStale   bool
	Source    string
	Timestamp int64
}

// PriceOracle is the native-token price collaborator; its internals
// (RPC/websocket connectors) are out of scope for the detector core.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (PriceQuote, error)
}

// WhaleTracker aggregates whale transactions; its internals are out of
// scope, the core only consumes recorded summaries.
type WhaleTracker interface {
	RecordTransaction(ctx context.Context, tx WhaleTransaction) error
	GetActivitySummary(ctx context.Context, token, chain string) (WhaleActivitySummary, error)
}

// BridgeRoute describes one available bridge between two chains.
type BridgeRoute struct {
	Name string
}

// BridgePrediction is the learned predictor's suggestion for a route.
type BridgePrediction struct {
	BridgeName      string
	EstimatedCostWei string // decimal integer string, wei-denominated
	EstimatedLatencySeconds float64
	Confidence      float64
}

// BridgeModelUpdate reports an observed, real bridge transfer outcome.
type BridgeModelUpdate struct {
	Bridge         string
	ActualLatencyMs int64
	ActualCostUsd   float64
	Success         bool
	TimestampMs     int64
}

// BridgePredictor is the learned-bridge-prediction collaborator; its
// training-loop internals are out of scope.
type BridgePredictor interface {
	GetAvailableRoutes(ctx context.Context, sourceChain, targetChain string) ([]BridgeRoute, error)
	PredictOptimalBridge(ctx context.Context, sourceChain, targetChain string, amount float64, urgency string) (BridgePrediction, error)
	UpdateModel(ctx context.Context, update BridgeModelUpdate) error
	Cleanup()
}

// MLPredictor is the ML price-movement predictor; the core only
// consumes its {direction, confidence} output, never its internals.
type MLPredictor interface {
	IsReady() bool
	PredictPrice(ctx context.Context, chain, pairKey string, recentPrices []float64) (Prediction, error)
}

// StreamClient is the Redis-Streams-shaped transport collaborator (§6):
// consumer-group creation, blocking reads, acknowledgement, and
// capped-length writes, plus a minimal key-value surface for the legacy
// health key.
type StreamClient interface {
	CreateConsumerGroup(ctx context.Context, stream, group, startID string) error
	XReadGroup(ctx context.Context, group, consumer string, streams []string, count int64, block int64) ([]StreamMessage, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
	XAddWithLimit(ctx context.Context, stream string, payload map[string]interface{}, cap int64) (string, error)
	Disconnect(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttlMs int64) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// StreamMessage is one delivered entry from a consumer-group read.
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// TokenNormalizer maps a chain-specific token symbol to its canonical
// cross-chain symbol (e.g. "WETH.e" -> "WETH").
type TokenNormalizer interface {
	Normalize(symbol string) string
}

// ChainRegistry resolves an EVM chainId to the detector's chain name.
type ChainRegistry interface {
	ChainNameByID(chainID int64) (string, bool)
}
