// Package model holds the data types shared by every cross-chain
// arbitrage detector component: price observations, whale and pending
// intent events, the detector's internal opportunity record and its
// external wire form.
package model

import "time"

// WhaleDirection is the side of a large trade.
type WhaleDirection string

const (
	WhaleBuy  WhaleDirection = "buy"
	WhaleSell WhaleDirection = "sell"
)

// DominantDirection summarizes a rolling whale-activity window.
type DominantDirection string

const (
	DominantBullish DominantDirection = "bullish"
	DominantBearish DominantDirection = "bearish"
	DominantNeutral DominantDirection = "neutral"
)

// PredictionDirection is the ML predictor's directional call.
type PredictionDirection string

const (
	PredictionUp       PredictionDirection = "up"
	PredictionDown     PredictionDirection = "down"
	PredictionSideways PredictionDirection = "sideways"
)

// BridgeCostSource tags which rung of the cost ladder produced an estimate.
type BridgeCostSource string

const (
	BridgeCostPredictor BridgeCostSource = "predictor"
	BridgeCostConfig    BridgeCostSource = "config"
	BridgeCostFallback  BridgeCostSource = "fallback"
)

// PriceUpdate is one observation of one trading pair on one DEX.
//
// Reserve0/Reserve1 are carried as decimal strings because they routinely
// exceed 2^53 and must not lose precision in transit.
type PriceUpdate struct {
	Chain       string
	Dex         string
	PairKey     string
	PairAddress string
	Token0      string
	Token1      string
	Reserve0    string
	Reserve1    string
	Price       float64
	TimestampMs int64
	BlockNumber uint64
	LatencyMs   int64
}

// Valid reports whether the update satisfies the data-model invariant.
func (p PriceUpdate) Valid() bool {
	return p.Price > 0 && p.TimestampMs > 0 && p.Chain != "" && p.PairKey != ""
}

// WhaleTransaction is a single large trade observed on some chain.
type WhaleTransaction struct {
	TransactionHash string
	WalletAddress   string
	Chain           string
	Dex             string
	Token           string
	Direction       WhaleDirection
	UsdValue        float64
	Amount          float64
	Impact          float64
	TimestampMs     int64
}

// WhaleActivitySummary aggregates recent whale activity for (token, chain).
type WhaleActivitySummary struct {
	Token              string
	Chain              string
	DominantDirection  DominantDirection
	BuyVolumeUsd       float64
	SellVolumeUsd      float64
	NetFlowUsd         float64
	SuperWhaleCount    int
	TransactionCount   int
	RecentTransactions []WhaleTransaction
}

// PendingSwapIntent is a to-be-mined swap observed in the mempool.
//
// Deadline is accepted in either Unix seconds or Unix milliseconds; the
// caller normalizes per spec (< 1e10 implies seconds, multiply by 1000).
type PendingSwapIntent struct {
	Hash              string
	ChainID           int64
	Router            string
	Type              string
	TokenIn           string
	TokenOut          string
	AmountIn          string
	GasPrice          string
	SlippageTolerance float64
	Deadline          int64
	EstimatedImpact   *float64
	Reserve0          string
	Reserve1          string
}

// NormalizedDeadlineMs returns Deadline normalized to Unix milliseconds.
func (p PendingSwapIntent) NormalizedDeadlineMs() int64 {
	if p.Deadline < 10_000_000_000 {
		return p.Deadline * 1000
	}
	return p.Deadline
}

// Prediction is the ML predictor's directional call for one pair.
type Prediction struct {
	Direction  PredictionDirection
	Confidence float64
}

// PricePoint is a snapshot tuple carried through the detection pipeline.
// It is derived and has no independent lifecycle.
type PricePoint struct {
	Chain   string
	Dex     string
	PairKey string
	Price   float64
	Update  PriceUpdate
}

// AgeMs returns how old the underlying update is relative to nowMs.
func (p PricePoint) AgeMs(nowMs int64) int64 {
	return nowMs - p.Update.TimestampMs
}

// IndexedSnapshot is a point-in-time, multi-indexed copy of the latest
// price store, built once per detection tick.
type IndexedSnapshot struct {
	TokenPairs []string
	ByToken    map[string][]PricePoint
	ByChain    map[string][]PricePoint
	TimestampMs int64
}

// CrossChainOpportunity is the detector's internal opportunity record.
type CrossChainOpportunity struct {
	Token           string
	SourceChain     string
	SourceDex       string
	SourcePrice     float64
	TargetChain     string
	TargetDex       string
	TargetPrice     float64
	PriceDiff       float64
	PercentageDiff  float64
	EstimatedProfit float64
	BridgeCost      float64
	NetProfit       float64
	Confidence      float64
	CreatedAtMs     int64

	WhaleTriggered   bool
	WhaleTxHash      string
	WhaleDirection   WhaleDirection
	WhaleVolumeUsd   float64

	MLConfidenceBoost  float64
	MLSourceDirection  PredictionDirection
	MLTargetDirection  PredictionDirection
	MLSupported        bool

	PendingTxHash    string
	PendingDeadline  int64
	PendingSlippage  float64
}

// BridgeCostEstimate is the Bridge Cost Estimator's detailed result.
type BridgeCostEstimate struct {
	CostUsd        float64
	Source         BridgeCostSource
	Confidence     float64
	Bridge         string
	LatencySeconds float64
}

// DedupeEntry is the Opportunity Publisher's cache value.
type DedupeEntry struct {
	Opportunity CrossChainOpportunity
	CreatedAtMs int64
}

// ArbitrageOpportunity is the external wire form handed to the execution
// engine. amountIn/expectedProfit are pre-converted token-unit values.
type ArbitrageOpportunity struct {
	ID               string
	Type             string
	TokenIn          string
	TokenOut         string
	BuyDex           string
	SellDex          string
	BuyChain         string
	SellChain        string
	AmountIn         string // 18-decimal integer, decimal string
	ExpectedProfit   float64
	ProfitPercentage float64
	BridgeRequired   bool
	BridgeCost       float64
	CreatedAtMs      int64
}

// HealthRecord is published periodically to the health stream.
type HealthRecord struct {
	Name               string
	Status             string
	UptimeSeconds       float64
	MemoryUsageBytes    uint64
	CPUUsagePercent     float64
	LastHeartbeatMs     int64
	ChainsMonitored     int
	OpportunitiesCache  int
	MLPredictorActive   bool
}

// Now returns the current time in Unix milliseconds. Centralized so
// components never call time.Now() directly, keeping the timeline
// testable via injection where needed.
func NowMs() int64 {
	return time.Now().UnixMilli()
}
