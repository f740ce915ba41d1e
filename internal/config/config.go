package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
)

// Feed provider selection
const (
	ProviderWebSocket = "ws"
	ProviderPoll      = "poll"
)

type Config struct {
	// Axiom venue settings
	AccessToken  string
	RefreshToken string
	APIBase      string
	PulseBase    string
	WSURL        string
	HTTPTimeout  time.Duration
	FallbackSeed int64

	// Feed settings
	FeedProvider   string
	ReconnectDelay time.Duration
	PollInterval   time.Duration

	// HTTP API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Kafka settings (empty brokers disables the producer)
	KafkaBrokers []string
	KafkaTopic   string

	// OpenRouter / LLM settings
	OpenRouterAPIKey string
	OpenRouterModel  string

	// Observability
	LogLevel       string
	MetricsEnabled bool
}

func Load() *Config {
	cfg := &Config{
		// Venue
		AccessToken:  getEnv("AXIOM_ACCESS_TOKEN", ""),
		RefreshToken: getEnv("AXIOM_REFRESH_TOKEN", ""),
		APIBase:      getEnv("AXIOM_API_BASE", constants.DefaultAPIBase),
		PulseBase:    getEnv("AXIOM_PULSE_BASE", constants.DefaultPulseBase),
		WSURL:        getEnv("AXIOM_WS_URL", constants.DefaultWSURL),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 15*time.Second),
		FallbackSeed: getInt64Env("FALLBACK_SEED", 0),

		// Feed
		FeedProvider:   getEnv("FEED_PROVIDER", ProviderWebSocket),
		ReconnectDelay: getDurationEnv("FEED_RECONNECT_DELAY", 5*time.Second),
		PollInterval:   getDurationEnv("POLL_INTERVAL", 15*time.Second),

		// API
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "pandora"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Kafka
		KafkaBrokers: getListEnv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "pandora.launches"),

		// LLM
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "deepseek/deepseek-chat-v3.1:free"),

		// Observability
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getBoolEnv("METRICS_ENABLED", true),
	}

	if cfg.FeedProvider != ProviderPoll {
		cfg.FeedProvider = ProviderWebSocket
	}

	return cfg
}

// KafkaEnabled reports whether the launch producer should be wired up.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getInt64Env(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getListEnv(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
