package constants

import "time"

// Redis keys
const (
	RedisKeyRecentLaunches = "launches:recent"
	RedisKeyMetricsPrefix  = "token:"
	RedisKeyTrendingPrefix = "trending:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelLaunches    = "launches:live"
	PubSubChannelTokenPrefix = "launches:token:"
)

// Limits
const (
	MaxRecentLaunches  = 500
	DefaultLaunchLimit = 50
	MaxLaunchLimit     = 200
)

// Cache TTLs
const (
	MetricsTTL  = 30 * time.Second
	TrendingTTL = 60 * time.Second
)

// Venue endpoints. Overridable via env; these are the production defaults.
const (
	DefaultAPIBase   = "https://api6.axiom.trade"
	DefaultPulseBase = "https://api6.axiom.trade"
	DefaultWSURL     = "wss://cluster7.axiom.trade/"
)

// Well-known mint addresses to symbols, used by handlers and fallback data.
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": "POPCAT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
}
