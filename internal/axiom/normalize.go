package axiom

import (
	"strconv"
	"time"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// The venue's schema is untyped and drifts between deployments; the same
// field arrives under different names depending on endpoint and version.
// Each target field has an ordered candidate key list, tried first match
// wins. A new upstream variant is an entry here, not a code change.
var (
	keysMint         = []string{"tokenAddress", "mint", "pairAddress", "address"}
	keysName         = []string{"tokenName", "name"}
	keysSymbol       = []string{"tokenTicker", "symbol", "ticker"}
	keysLiquiditySol = []string{"liquiditySol", "liquidity_sol", "solAmount"}
	keysLiquidityUSD = []string{"liquidityUsd", "liquidity_usd"}
	keysVolume24h    = []string{"volume24h", "volume_24h", "volumeSol"}
	keysPriceUSD     = []string{"priceUsd", "price_usd", "price"}
	keysPriceChange  = []string{"priceChange24h", "price_change_24h", "change24h"}
	keysHolders      = []string{"holders", "holderCount", "numHolders"}
	keysMarketCap    = []string{"marketCap", "marketCapSol", "market_cap", "mcap"}
	keysCreatedAt    = []string{"createdAt", "created_at", "launchedAt"}
	keysScore        = []string{"score", "trendingScore"}
	keysDeployer     = []string{"deployerAddress", "deployer", "creator", "traderPublicKey"}
	keysTimestamp    = []string{"timestamp", "createdAt", "launchTime"}
)

// payload is one untyped venue object.
type payload map[string]any

// float returns the first candidate that parses as a number, else 0.
// Numeric strings count; the venue quotes prices on some endpoints.
func (p payload) float(keys []string) float64 {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func (p payload) integer(keys []string) int64 {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			return int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func (p payload) str(keys []string) string {
	for _, k := range keys {
		if s, ok := p[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// when parses the first candidate as a timestamp: numbers are epoch millis
// (epoch seconds for small values), strings RFC3339. Zero time when absent.
func (p payload) when(keys []string) time.Time {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			if v <= 0 {
				continue
			}
			ms := int64(v)
			if ms < 1e11 {
				ms *= 1000
			}
			return time.UnixMilli(ms)
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// normalizeToken maps one venue object into the fixed internal shape.
// Missing numeric fields default to zero independently, never null.
func normalizeToken(raw payload) models.TokenMetrics {
	return models.TokenMetrics{
		Mint:           raw.str(keysMint),
		Name:           raw.str(keysName),
		Symbol:         raw.str(keysSymbol),
		LiquiditySol:   raw.float(keysLiquiditySol),
		LiquidityUSD:   raw.float(keysLiquidityUSD),
		Volume24h:      raw.float(keysVolume24h),
		PriceUSD:       raw.float(keysPriceUSD),
		PriceChange24h: raw.float(keysPriceChange),
		Holders:        raw.integer(keysHolders),
		MarketCap:      raw.float(keysMarketCap),
		CreatedAt:      raw.when(keysCreatedAt),
	}
}

// normalizeTrending adds ranking context. Rank is the 1-based as-received
// position; the upstream score passes through untouched.
func normalizeTrending(raw payload, rank int) models.TrendingMetrics {
	return models.TrendingMetrics{
		TokenMetrics: normalizeToken(raw),
		Rank:         rank,
		Score:        raw.float(keysScore),
	}
}

// normalizeLaunch maps one pulse object, stamping arrival time when the
// venue omits the launch timestamp.
func normalizeLaunch(raw payload, arrival time.Time) models.LaunchEvent {
	ts := raw.when(keysTimestamp)
	if ts.IsZero() {
		ts = arrival
	}
	return models.LaunchEvent{
		Mint:         raw.str(keysMint),
		Name:         raw.str(keysName),
		Symbol:       raw.str(keysSymbol),
		LiquiditySol: raw.float(keysLiquiditySol),
		Deployer:     raw.str(keysDeployer),
		Timestamp:    ts,
	}
}
