package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DimaJoyti/go-coffee/pkg/config"
	"github.com/DimaJoyti/go-coffee/pkg/logger"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/detector"
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/streamconsumer"
)

const serviceName = "cross-chain-detector"

func main() {
	loggerInstance := logger.New(serviceName)
	defer loggerInstance.Sync()

	loggerInstance.Info("Starting Cross-Chain Arbitrage Detector")

	cfg, err := config.LoadConfig()
	if err != nil {
		loggerInstance.WithError(err).Fatal("Failed to load configuration")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	streamClient := streamconsumer.NewRedisStreamClient(rdb)

	detCfg := detectorConfigFromEnv()

	det, err := detector.New(detCfg, detector.Deps{
		StreamClient: streamClient,
	}, loggerInstance)
	if err != nil {
		loggerInstance.WithError(err).Fatal("Failed to construct detector core")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := det.Start(ctx); err != nil {
		loggerInstance.WithError(err).Fatal("Failed to start detector core")
	}
	loggerInstance.Info("Detector core started")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	loggerInstance.Info("Shutting down Cross-Chain Arbitrage Detector")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan error, 1)
	go func() { done <- det.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			loggerInstance.WithError(err).Warn("Detector core stopped with error")
		} else {
			loggerInstance.Info("Detector core stopped gracefully")
		}
	case <-shutdownCtx.Done():
		loggerInstance.Warn("Detector core shutdown timeout")
	}

	loggerInstance.Info("Cross-Chain Arbitrage Detector stopped")
}

// detectorConfigFromEnv layers environment overrides over the detector's
// documented defaults, following the same GetEnv*/default-value pattern
// pkg/config itself uses for every other service in this tree.
func detectorConfigFromEnv() detector.Config {
	cfg := detector.DefaultConfig()

	cfg.DetectionIntervalMs = int64(config.GetEnvAsInt("DETECTION_INTERVAL_MS", int(cfg.DetectionIntervalMs)))
	cfg.HealthCheckIntervalMs = int64(config.GetEnvAsInt("HEALTH_CHECK_INTERVAL_MS", int(cfg.HealthCheckIntervalMs)))
	cfg.NativePriceIntervalMs = int64(config.GetEnvAsInt("NATIVE_PRICE_INTERVAL_MS", int(cfg.NativePriceIntervalMs)))
	cfg.MaxPriceAgeMs = int64(config.GetEnvAsInt("MAX_PRICE_AGE_MS", int(cfg.MaxPriceAgeMs)))
	cfg.MinSpreadPercent = config.GetEnvAsFloat64("MIN_SPREAD_PERCENT", cfg.MinSpreadPercent)
	cfg.MinProfitPercentage = config.GetEnvAsFloat64("MIN_PROFIT_PERCENTAGE", cfg.MinProfitPercentage)
	cfg.GasCostUsd = config.GetEnvAsFloat64("GAS_COST_USD", cfg.GasCostUsd)
	cfg.SwapFeePercent = config.GetEnvAsFloat64("SWAP_FEE_PERCENT", cfg.SwapFeePercent)

	tradeSize := config.GetEnvAsFloat64("DEFAULT_TRADE_SIZE_USD", cfg.Bridge.DefaultTradeSizeUsd)
	cfg.Bridge.DefaultTradeSizeUsd = tradeSize
	cfg.Publisher.DefaultTradeSizeUsd = tradeSize

	return cfg
}
