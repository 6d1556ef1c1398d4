// Package confidence implements the Confidence Calculator (component D):
// combines spread magnitude, price freshness, whale activity, and ML
// directional predictions into a single score in [0, 0.95].
package confidence

import (
	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// Config holds the calculator's tunables; all defaults per spec.md §4.D.
type Config struct {
	WhaleBullishBoost     float64 // 1.15
	SuperWhaleBoost       float64 // 1.25
	WhaleBearishPenalty   float64 // 0.85
	AlignedBoost          float64 // 1.15
	SecondaryAlignedBoost float64 // 1.05, applied to target when source already aligned
	OpposedPenalty        float64 // 0.9
	MLMinConfidence       float64 // 0.6
	Cap                   float64 // 0.95
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		WhaleBullishBoost:     1.15,
		SuperWhaleBoost:       1.25,
		WhaleBearishPenalty:   0.85,
		AlignedBoost:          1.15,
		SecondaryAlignedBoost: 1.05,
		OpposedPenalty:        0.9,
		MLMinConfidence:       0.6,
		Cap:                   0.95,
	}
}

// Calculator is the Confidence Calculator.
type Calculator struct {
	cfg Config
}

// New constructs a Calculator.
func New(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate returns the confidence score for one arbitrage candidate.
// whale, sourcePred and targetPred are optional (nil when not
// applicable). nowMs is the time the score is computed at, used for the
// freshness penalty against lowPrice's observation timestamp.
func (c *Calculator) Calculate(
	nowMs int64,
	highPrice, lowPrice float64,
	lowPriceTimestampMs int64,
	whale *model.WhaleActivitySummary,
	sourcePred, targetPred *model.Prediction,
) float64 {
	score := c.base(highPrice, lowPrice)
	score *= c.freshnessPenalty(nowMs, lowPriceTimestampMs)
	score *= c.whaleAdjustment(whale)
	score *= c.mlAdjustment(sourcePred, targetPred)

	if score > c.cfg.Cap {
		score = c.cfg.Cap
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (c *Calculator) base(highPrice, lowPrice float64) float64 {
	if lowPrice <= 0 {
		return 0
	}
	spread := highPrice/lowPrice - 1
	if spread > 0.5 {
		spread = 0.5
	}
	return spread * 2
}

func (c *Calculator) freshnessPenalty(nowMs, observedAtMs int64) float64 {
	ageMinutes := float64(nowMs-observedAtMs) / 60000.0
	penalty := 1 - ageMinutes*0.1
	if penalty < 0.1 {
		penalty = 0.1
	}
	return penalty
}

func (c *Calculator) whaleAdjustment(whale *model.WhaleActivitySummary) float64 {
	if whale == nil {
		return 1
	}
	mult := 1.0
	switch whale.DominantDirection {
	case model.DominantBullish:
		mult *= c.cfg.WhaleBullishBoost
		if whale.SuperWhaleCount > 0 {
			mult *= c.cfg.SuperWhaleBoost
		}
	case model.DominantBearish:
		mult *= c.cfg.WhaleBearishPenalty
	}
	return mult
}

func (c *Calculator) mlAdjustment(sourcePred, targetPred *model.Prediction) float64 {
	mult := 1.0
	sourceAligned := false

	if sourcePred != nil && sourcePred.Confidence >= c.cfg.MLMinConfidence {
		switch sourcePred.Direction {
		case model.PredictionUp:
			mult *= c.cfg.AlignedBoost
			sourceAligned = true
		case model.PredictionDown:
			mult *= c.cfg.OpposedPenalty
		}
	}

	if targetPred != nil && targetPred.Confidence >= c.cfg.MLMinConfidence {
		switch targetPred.Direction {
		case model.PredictionUp, model.PredictionSideways:
			boost := c.cfg.AlignedBoost
			if sourceAligned {
				boost = c.cfg.SecondaryAlignedBoost
			}
			mult *= boost
		case model.PredictionDown:
			mult *= c.cfg.OpposedPenalty
		}
	}

	return mult
}

// Validate rejects configurations the spec names as construction-time
// errors (mlConfig.minConfidence out of [0,1], alignedBoost < 1,
// opposedPenalty out of [0,1]).
func (c Config) Validate() error {
	if c.MLMinConfidence < 0 || c.MLMinConfidence > 1 {
		return errInvalidConfig("mlConfig.minConfidence must be in [0,1]")
	}
	if c.AlignedBoost < 1 {
		return errInvalidConfig("alignedBoost must be >= 1")
	}
	if c.OpposedPenalty < 0 || c.OpposedPenalty > 1 {
		return errInvalidConfig("opposedPenalty must be in [0,1]")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errInvalidConfig(msg string) error {
	return configError(msg)
}
