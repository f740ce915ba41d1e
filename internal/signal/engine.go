// Package signal derives a trade recommendation from one token's market
// metrics. Analyze is pure: no I/O, no shared state, deterministic for a
// given input.
package signal

import (
	"fmt"
	"math"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// Saturation points for the sub-scores.
const (
	liquiditySaturationSol = 1000.0
	volumeSaturationUSD    = 1_000_000.0
	holderSaturation       = 1000.0
)

// Composite weights. These are a fixed contract with downstream consumers,
// not tunables.
const (
	weightLiquidity = 0.30
	weightVolume    = 0.30
	weightMomentum  = 0.25
	weightSafety    = 0.15
)

// Classification thresholds. The branch order in Analyze is a deliberate
// tie-break cascade; first match wins.
const (
	strongBuyComposite    = 80.0
	strongBuyLiquiditySol = 500.0
	strongBuyMomentum     = 10.0
	buyComposite          = 60.0
	buyLiquiditySol       = 100.0
	holdComposite         = 40.0
	avoidLiquiditySol     = 10.0
	avoidRisk             = 80.0
)

// Analyze scores one token and classifies it. Sub-scores:
//
//	liquidity  0..100, saturates at 1000 SOL pooled
//	volume     0..100, saturates at $1M 24h volume
//	momentum  -100..100, doubled 24h price change, clamped
//	risk       0..100, inverse holder count, saturates at 1000 holders
//
// Confidence is composite/100 clamped to [0,1], never set independently.
func Analyze(token models.TokenMetrics) models.Analysis {
	liquidityScore := math.Min(token.LiquiditySol/liquiditySaturationSol*100, 100)
	volumeScore := math.Min(token.Volume24h/volumeSaturationUSD*100, 100)

	var momentumScore float64
	if token.PriceChange24h > 0 {
		momentumScore = math.Min(token.PriceChange24h*2, 100)
	} else {
		momentumScore = math.Max(token.PriceChange24h*2, -100)
	}

	riskScore := 100 - math.Min(float64(token.Holders)/holderSaturation*100, 100)

	composite := weightLiquidity*liquidityScore +
		weightVolume*volumeScore +
		weightMomentum*momentumScore +
		weightSafety*(100-riskScore)

	recommendation, reasoning := classify(token, composite, momentumScore, riskScore)

	return models.Analysis{
		Mint:           token.Mint,
		LiquidityScore: liquidityScore,
		VolumeScore:    volumeScore,
		MomentumScore:  momentumScore,
		RiskScore:      riskScore,
		Composite:      composite,
		Recommendation: recommendation,
		Confidence:     clamp(composite/100, 0, 1),
		Reasoning:      reasoning,
	}
}

// classify walks the ordered branch chain. Order matters: avoid is only
// reachable once the hold threshold has failed, regardless of liquidity.
func classify(token models.TokenMetrics, composite, momentumScore, riskScore float64) (models.Recommendation, string) {
	switch {
	case composite >= strongBuyComposite && token.LiquiditySol > strongBuyLiquiditySol && momentumScore > strongBuyMomentum:
		return models.RecommendStrongBuy, fmt.Sprintf(
			"Excellent liquidity (%.1f SOL), strong momentum (%+.1f%%), composite score %.1f",
			token.LiquiditySol, token.PriceChange24h, composite)

	case composite >= buyComposite && token.LiquiditySol > buyLiquiditySol:
		return models.RecommendBuy, fmt.Sprintf(
			"Good composite score %.1f with healthy liquidity (%.1f SOL)",
			composite, token.LiquiditySol)

	case composite >= holdComposite:
		return models.RecommendHold, fmt.Sprintf(
			"Moderate composite score %.1f, no strong directional signal",
			composite)

	case token.LiquiditySol < avoidLiquiditySol || riskScore > avoidRisk:
		return models.RecommendAvoid, fmt.Sprintf(
			"Thin liquidity (%.1f SOL) or high risk (%.1f) with %d holders",
			token.LiquiditySol, riskScore, token.Holders)

	default:
		return models.RecommendSell, fmt.Sprintf(
			"Weak composite score %.1f with momentum %+.1f%%",
			composite, token.PriceChange24h)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
