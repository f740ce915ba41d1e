package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, constants.DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, constants.DefaultWSURL, cfg.WSURL)
	assert.Equal(t, ProviderWebSocket, cfg.FeedProvider)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "pandora", cfg.ClickHouseDatabase)
	assert.Equal(t, "pandora.launches", cfg.KafkaTopic)
	assert.False(t, cfg.KafkaEnabled())
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AXIOM_ACCESS_TOKEN", "acc")
	t.Setenv("AXIOM_REFRESH_TOKEN", "ref")
	t.Setenv("FEED_PROVIDER", "poll")
	t.Setenv("FEED_RECONNECT_DELAY", "2s")
	t.Setenv("FALLBACK_SEED", "42")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "acc", cfg.AccessToken)
	assert.Equal(t, "ref", cfg.RefreshToken)
	assert.Equal(t, ProviderPoll, cfg.FeedProvider)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, int64(42), cfg.FallbackSeed)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_UnknownProviderFallsBackToWebSocket(t *testing.T) {
	t.Setenv("FEED_PROVIDER", "carrier-pigeon")

	cfg := Load()
	assert.Equal(t, ProviderWebSocket, cfg.FeedProvider)
}

func TestLoad_MalformedValuesUseDefaults(t *testing.T) {
	t.Setenv("FEED_RECONNECT_DELAY", "soon")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("METRICS_ENABLED", "sometimes")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.MetricsEnabled)
}
