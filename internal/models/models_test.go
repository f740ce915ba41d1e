package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeframeNormalize(t *testing.T) {
	cases := []struct {
		in   Timeframe
		want Timeframe
	}{
		{Timeframe1H, Timeframe1H},
		{Timeframe6H, Timeframe6H},
		{Timeframe24H, Timeframe24H},
		{"", Timeframe1H},
		{"2w", Timeframe1H},
		{"24H", Timeframe1H}, // case-sensitive on purpose
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.in.Normalize(), "in=%q", c.in)
	}
}

func TestLaunchEventMetrics(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := LaunchEvent{
		Mint:         "So11111111111111111111111111111111111111112",
		Name:         "Wrapped SOL",
		Symbol:       "WSOL",
		LiquiditySol: 42.5,
		Deployer:     "deployer-wallet",
		Timestamp:    ts,
	}

	m := l.Metrics()
	assert.Equal(t, l.Mint, m.Mint)
	assert.Equal(t, l.Name, m.Name)
	assert.Equal(t, l.Symbol, m.Symbol)
	assert.Equal(t, 42.5, m.LiquiditySol)
	assert.Equal(t, ts, m.CreatedAt)

	// Fields a launch cannot know stay zero.
	assert.Zero(t, m.Volume24h)
	assert.Zero(t, m.PriceUSD)
	assert.Zero(t, m.Holders)
	assert.Zero(t, m.MarketCap)
}
