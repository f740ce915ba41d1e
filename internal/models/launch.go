package models

import "time"

// LaunchEvent is a newly deployed token seen on the pulse feed.
// Timestamp falls back to event-arrival time when the venue omits it.
type LaunchEvent struct {
	Mint         string    `json:"mint"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	LiquiditySol float64   `json:"liquidity_sol"`
	Deployer     string    `json:"deployer"`
	Timestamp    time.Time `json:"timestamp"`
}

// Metrics lifts a launch into the TokenMetrics shape so it can be scored.
// Only the fields a launch carries are populated; the rest stay zero.
func (l LaunchEvent) Metrics() TokenMetrics {
	return TokenMetrics{
		Mint:         l.Mint,
		Name:         l.Name,
		Symbol:       l.Symbol,
		LiquiditySol: l.LiquiditySol,
		CreatedAt:    l.Timestamp,
	}
}
