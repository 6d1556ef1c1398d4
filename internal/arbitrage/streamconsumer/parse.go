package streamconsumer

import (
	"errors"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// Dynamic stream payloads are validated at this boundary into strong
// types (spec.md §9); unknown extra fields are ignored, and any missing
// required field is a validation failure, which the caller acks and
// drops rather than propagating.

func parsePriceUpdate(values map[string]interface{}) (model.PriceUpdate, error) {
	chain, ok := strField(values, "chain")
	if !ok || chain == "" {
		return model.PriceUpdate{}, errors.New("missing chain")
	}
	dex, _ := strField(values, "dex")
	pairKey, ok := strField(values, "pairKey")
	if !ok || pairKey == "" {
		return model.PriceUpdate{}, errors.New("missing pairKey")
	}
	price, ok := floatField(values, "price")
	if !ok || price <= 0 {
		return model.PriceUpdate{}, errors.New("missing or non-positive price")
	}
	timestamp, ok := intField(values, "timestamp")
	if !ok || timestamp <= 0 {
		return model.PriceUpdate{}, errors.New("missing or non-positive timestamp")
	}

	pairAddress, _ := strField(values, "pairAddress")
	token0, _ := strField(values, "token0")
	token1, _ := strField(values, "token1")
	reserve0, _ := strField(values, "reserve0")
	reserve1, _ := strField(values, "reserve1")
	blockNumber, _ := intField(values, "blockNumber")
	latency, _ := intField(values, "latency")

	return model.PriceUpdate{
		Chain:       chain,
		Dex:         dex,
		PairKey:     pairKey,
		PairAddress: pairAddress,
		Token0:      token0,
		Token1:      token1,
		Reserve0:    reserve0,
		Reserve1:    reserve1,
		Price:       price,
		TimestampMs: timestamp,
		BlockNumber: uint64(blockNumber),
		LatencyMs:   latency,
	}, nil
}

func parseWhaleTransaction(values map[string]interface{}) (model.WhaleTransaction, error) {
	chain, ok := strField(values, "chain")
	if !ok || chain == "" {
		return model.WhaleTransaction{}, errors.New("missing chain")
	}
	usdValue, ok := floatField(values, "usdValue")
	if !ok || usdValue < 0 {
		return model.WhaleTransaction{}, errors.New("missing or negative usdValue")
	}
	direction, ok := strField(values, "direction")
	if !ok || (direction != string(model.WhaleBuy) && direction != string(model.WhaleSell)) {
		return model.WhaleTransaction{}, errors.New("invalid direction")
	}

	txHash, _ := strField(values, "transactionHash")
	wallet, _ := strField(values, "walletAddress")
	dex, _ := strField(values, "dex")
	token, _ := strField(values, "token")
	amount, _ := floatField(values, "amount")
	impact, _ := floatField(values, "impact")
	timestamp, _ := intField(values, "timestamp")

	return model.WhaleTransaction{
		TransactionHash: txHash,
		WalletAddress:   wallet,
		Chain:           chain,
		Dex:             dex,
		Token:           token,
		Direction:       model.WhaleDirection(direction),
		UsdValue:        usdValue,
		Amount:          amount,
		Impact:          impact,
		TimestampMs:     timestamp,
	}, nil
}

func parsePendingSwapIntent(values map[string]interface{}) (model.PendingSwapIntent, error) {
	hash, ok := strField(values, "hash")
	if !ok || hash == "" {
		return model.PendingSwapIntent{}, errors.New("missing hash")
	}
	chainID, ok := intField(values, "chainId")
	if !ok {
		return model.PendingSwapIntent{}, errors.New("missing chainId")
	}
	router, _ := strField(values, "router")
	dexType, _ := strField(values, "type")
	tokenIn, ok := strField(values, "tokenIn")
	if !ok || tokenIn == "" {
		return model.PendingSwapIntent{}, errors.New("missing tokenIn")
	}
	tokenOut, ok := strField(values, "tokenOut")
	if !ok || tokenOut == "" {
		return model.PendingSwapIntent{}, errors.New("missing tokenOut")
	}
	amountIn, ok := strField(values, "amountIn")
	if !ok || amountIn == "" {
		return model.PendingSwapIntent{}, errors.New("missing amountIn")
	}
	gasPrice, _ := strField(values, "gasPrice")
	slippage, _ := floatField(values, "slippageTolerance")
	deadline, ok := intField(values, "deadline")
	if !ok || deadline <= 0 {
		return model.PendingSwapIntent{}, errors.New("missing or non-positive deadline")
	}

	reserve0, _ := strField(values, "reserve0")
	reserve1, _ := strField(values, "reserve1")

	intent := model.PendingSwapIntent{
		Hash:              hash,
		ChainID:           chainID,
		Router:            router,
		Type:              dexType,
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		GasPrice:          gasPrice,
		SlippageTolerance: slippage,
		Deadline:          deadline,
		Reserve0:          reserve0,
		Reserve1:          reserve1,
	}

	if impact, ok := floatField(values, "estimatedImpact"); ok {
		intent.EstimatedImpact = &impact
	}

	return intent, nil
}
