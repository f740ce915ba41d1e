package models

import "time"

// Timeframe is the aggregation window for trending queries.
type Timeframe string

const (
	Timeframe1H  Timeframe = "1h"
	Timeframe6H  Timeframe = "6h"
	Timeframe24H Timeframe = "24h"
)

// Normalize folds any unrecognized value to the 1h default.
func (t Timeframe) Normalize() Timeframe {
	switch t {
	case Timeframe1H, Timeframe6H, Timeframe24H:
		return t
	default:
		return Timeframe1H
	}
}

func (t Timeframe) String() string { return string(t) }

// TokenMetrics is one market-observed token in our fixed internal shape.
// Numeric fields default to zero when the venue omits them, never null.
type TokenMetrics struct {
	Mint           string    `json:"mint"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	LiquiditySol   float64   `json:"liquidity_sol"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24h      float64   `json:"volume_24h"`
	PriceUSD       float64   `json:"price_usd"`
	PriceChange24h float64   `json:"price_change_24h"`
	Holders        int64     `json:"holders"`
	MarketCap      float64   `json:"market_cap"`
	CreatedAt      time.Time `json:"created_at"`
}

// TrendingMetrics is TokenMetrics plus ranking context. Rank is the 1-based
// position in the list as received from the venue; the upstream score is
// passed through untouched and the list is never re-sorted by it.
type TrendingMetrics struct {
	TokenMetrics
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}
