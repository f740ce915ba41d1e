package signal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

func token(liqSol, vol24h, change24h float64, holders int64) models.TokenMetrics {
	return models.TokenMetrics{
		Mint:           "TESTMINTxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		Name:           "Test Token",
		Symbol:         "TEST",
		LiquiditySol:   liqSol,
		Volume24h:      vol24h,
		PriceChange24h: change24h,
		Holders:        holders,
	}
}

func TestAnalyze_SubScores(t *testing.T) {
	a := Analyze(token(500, 250_000, 15, 250))

	assert.InDelta(t, 50.0, a.LiquidityScore, 1e-9)
	assert.InDelta(t, 25.0, a.VolumeScore, 1e-9)
	assert.InDelta(t, 30.0, a.MomentumScore, 1e-9)
	assert.InDelta(t, 75.0, a.RiskScore, 1e-9)
	// 0.30*50 + 0.30*25 + 0.25*30 + 0.15*25
	assert.InDelta(t, 33.75, a.Composite, 1e-9)
}

func TestAnalyze_Saturation(t *testing.T) {
	// Everything pinned at its ceiling.
	a := Analyze(token(50_000, 25_000_000, 80, 500_000))
	assert.Equal(t, 100.0, a.LiquidityScore)
	assert.Equal(t, 100.0, a.VolumeScore)
	assert.Equal(t, 100.0, a.MomentumScore)
	assert.Equal(t, 0.0, a.RiskScore)

	// Momentum clamps symmetrically on the downside.
	a = Analyze(token(50_000, 25_000_000, -80, 500_000))
	assert.Equal(t, -100.0, a.MomentumScore)
}

func TestAnalyze_Deterministic(t *testing.T) {
	in := token(750, 400_000, 22.5, 1234)
	first := Analyze(in)
	for run := 0; run < 10; run++ {
		assert.Equal(t, first, Analyze(in), "run %d diverged", run)
	}
}

func TestAnalyze_ConfidenceBounds(t *testing.T) {
	cases := []models.TokenMetrics{
		token(0, 0, 0, 0),
		token(50, 10_000, -50, 500), // negative composite
		token(50_000, 25_000_000, 80, 500_000),
		token(9.999, 0, 0, 10),
		token(500, 1_000_000, 50, 1000),
	}

	valid := map[models.Recommendation]bool{
		models.RecommendStrongBuy: true,
		models.RecommendBuy:       true,
		models.RecommendHold:      true,
		models.RecommendSell:      true,
		models.RecommendAvoid:     true,
	}

	for i, in := range cases {
		a := Analyze(in)
		assert.GreaterOrEqual(t, a.Confidence, 0.0, "case %d", i)
		assert.LessOrEqual(t, a.Confidence, 1.0, "case %d", i)
		assert.True(t, valid[a.Recommendation], "case %d: unexpected recommendation %q", i, a.Recommendation)
		assert.NotEmpty(t, a.Reasoning, "case %d", i)
	}
}

func TestAnalyze_StrongBuyLiquidityGateIsStrict(t *testing.T) {
	// Volume, momentum and holders pinned so composite clears 80 either way;
	// only the liquidity gate differs.
	above := Analyze(token(500.0001, 1_000_000, 50, 1000))
	require.GreaterOrEqual(t, above.Composite, 80.0)
	assert.Equal(t, models.RecommendStrongBuy, above.Recommendation)

	at := Analyze(token(500, 1_000_000, 50, 1000))
	require.GreaterOrEqual(t, at.Composite, 80.0)
	assert.NotEqual(t, models.RecommendStrongBuy, at.Recommendation)
	// Exactly 500 SOL falls through to the buy branch.
	assert.Equal(t, models.RecommendBuy, at.Recommendation)
}

func TestAnalyze_ThinLiquidityForcesAvoid(t *testing.T) {
	a := Analyze(token(9.999, 0, 0, 10))
	assert.Equal(t, models.RecommendAvoid, a.Recommendation)

	// An earlier branch still wins the cascade: thin liquidity with a hold-level
	// composite classifies hold, not avoid.
	a = Analyze(token(9.999, 1_000_000, 30, 1000))
	require.GreaterOrEqual(t, a.Composite, 40.0)
	assert.Equal(t, models.RecommendHold, a.Recommendation)
}

func TestAnalyze_BranchChain(t *testing.T) {
	cases := []struct {
		name string
		in   models.TokenMetrics
		want models.Recommendation
	}{
		{"strong buy end to end", token(50_000, 25_000_000, 15.5, 500_000), models.RecommendStrongBuy},
		{"buy on composite without strong momentum", token(900, 1_000_000, 2, 1000), models.RecommendBuy},
		{"hold when buy liquidity gate fails", token(80, 1_000_000, 30, 1000), models.RecommendHold},
		{"avoid end to end", token(5, 0, 0, 10), models.RecommendAvoid},
		{"avoid on high risk", token(20, 0, 0, 100), models.RecommendAvoid},
		{"sell when nothing else matches", token(50, 10_000, -50, 500), models.RecommendSell},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Analyze(tc.in)
			assert.Equal(t, tc.want, a.Recommendation, "composite=%.2f", a.Composite)
		})
	}
}

func TestAnalyze_ConfidenceTracksComposite(t *testing.T) {
	a := Analyze(token(50_000, 25_000_000, 15.5, 500_000))
	// liq 100, vol 100, momentum 31, risk 0 -> composite 82.75
	assert.InDelta(t, 82.75, a.Composite, 1e-9)
	assert.InDelta(t, 0.8275, a.Confidence, 1e-9)

	// Negative composite clamps to zero.
	a = Analyze(token(50, 10_000, -50, 500))
	assert.Negative(t, a.Composite)
	assert.Equal(t, 0.0, a.Confidence)
}

func TestAnalyze_ReasoningCitesFigures(t *testing.T) {
	a := Analyze(token(50_000, 25_000_000, 15.5, 500_000))
	assert.Contains(t, a.Reasoning, "50000.0 SOL")
	assert.Contains(t, a.Reasoning, "+15.5%")

	a = Analyze(token(5, 0, 0, 10))
	assert.Contains(t, a.Reasoning, "5.0 SOL")
	assert.Contains(t, a.Reasoning, fmt.Sprintf("%d holders", 10))
}
