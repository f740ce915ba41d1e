// ============================================================================
// cmd/feed/main.go - Launch Feed Pipeline Service
// ============================================================================
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/PandoraOSgit/pandora-market-feed/internal/axiom"
	"github.com/PandoraOSgit/pandora-market-feed/internal/cache"
	"github.com/PandoraOSgit/pandora-market-feed/internal/config"
	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/flags"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/observability"
	"github.com/PandoraOSgit/pandora-market-feed/internal/queue"
	"github.com/PandoraOSgit/pandora-market-feed/internal/session"
	tradesignal "github.com/PandoraOSgit/pandora-market-feed/internal/signal"
	"github.com/PandoraOSgit/pandora-market-feed/internal/storage"
	"github.com/PandoraOSgit/pandora-market-feed/internal/stream"
)

type Pipeline struct {
	cache    *cache.RedisCache
	store    *cache.ClickHouseStore
	flags    *flags.Store
	producer queue.LaunchProducer
}

func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	rcache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	store, err := cache.NewClickHouseStore(cfg.ClickHouseAddr, cfg.ClickHouseDatabase, cfg.ClickHouseUsername, cfg.ClickHousePassword)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	// Dedicated connection for the flags store
	fclient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	flagStore, err := flags.NewStore(fclient)
	if err != nil {
		return nil, err
	}
	if err := flagStore.EnsureDefaults(ctx); err != nil {
		log.Printf("⚠️  Failed to seed default flags: %v", err)
	}

	var producer queue.LaunchProducer
	if cfg.KafkaEnabled() {
		log.Printf("📨 Kafka producer enabled: %v topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
		producer = queue.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	return &Pipeline{
		cache:    rcache,
		store:    store,
		flags:    flagStore,
		producer: producer,
	}, nil
}

func (p *Pipeline) Close() {
	if p.producer != nil {
		_ = p.producer.Close()
	}
	_ = p.store.Close()
	_ = p.cache.Close()
}

func (p *Pipeline) ProcessLaunch(ctx context.Context, launch *models.LaunchEvent) error {
	// Runtime kill switch for the whole pipeline
	if !p.flags.Enabled(ctx, flags.KeyFeedEnabled, true) {
		return nil
	}

	log.Printf("🚀 New launch: %s (%s) with %.2f SOL liquidity",
		launch.Name, shortMint(launch.Mint), launch.LiquiditySol)

	analysis := tradesignal.Analyze(launch.Metrics())
	log.Printf("📊 Signal: %s (composite %.1f)", analysis.Recommendation, analysis.Composite)
	observability.RecordSignal(string(analysis.Recommendation))

	// 1. Store in Redis cache
	metrics := launch.Metrics()
	if err := p.cache.SetTokenMetrics(ctx, &metrics); err != nil {
		log.Printf("⚠️  Redis cache error: %v", err)
		observability.RecordPipelineError("redis")
	}
	if err := p.cache.AddRecentLaunch(ctx, launch); err != nil {
		log.Printf("⚠️  Redis cache error: %v", err)
		observability.RecordPipelineError("redis")
	}

	// 2. Publish to Redis Pub/Sub (real-time distribution)
	if err := p.cache.PublishLaunch(ctx, launch); err != nil {
		log.Printf("⚠️  Pub/Sub error: %v", err)
		observability.RecordPipelineError("pubsub")
	}

	// 3. Forward to Kafka when a producer is configured
	if p.producer != nil {
		if err := p.producer.PublishLaunch(ctx, launch); err != nil {
			log.Printf("⚠️  Kafka error: %v", err)
			observability.RecordPipelineError("kafka")
		}
	}

	// 4. Store in ClickHouse (historical data)
	if p.flags.Enabled(ctx, flags.KeySignalsPersist, true) {
		if err := p.store.InsertLaunch(ctx, launch); err != nil {
			log.Printf("❌ ClickHouse error: %v", err)
			observability.RecordPipelineError("clickhouse")
			return err
		}
		if err := p.store.InsertSignal(ctx, &analysis); err != nil {
			log.Printf("❌ ClickHouse error: %v", err)
			observability.RecordPipelineError("clickhouse")
			return err
		}
		observability.RecordLaunchStored()
	}

	return nil
}

func shortMint(mint string) string {
	if len(mint) > 8 {
		return mint[:8]
	}
	return mint
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cfg := config.Load()

	// Initialize pipeline
	pipeline, err := NewPipeline(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pipeline.Close()

	log.Println("🚀 Starting Pandora launch feed...")

	// The feed providers log through logrus internally
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	sess := session.NewStore(cfg.AccessToken, cfg.RefreshToken)
	if !sess.Ready() {
		log.Println("⚠️  Venue credentials not configured, feed will serve fallback data")
	}

	var provider storage.LaunchProvider
	switch cfg.FeedProvider {
	case config.ProviderWebSocket:
		log.Printf("📡 Using venue WebSocket feed: %s", cfg.WSURL)
		feed := axiom.NewFeed(axiom.FeedConfig{
			URL:            cfg.WSURL,
			Session:        sess,
			Logger:         logger,
			ReconnectDelay: cfg.ReconnectDelay,
		})
		provider = stream.NewFeedProvider(feed, logger)

	case config.ProviderPoll:
		log.Printf("📡 Using pulse polling every %s", cfg.PollInterval)
		client := axiom.NewClient(axiom.Config{
			APIBase:      cfg.APIBase,
			PulseBase:    cfg.PulseBase,
			Session:      sess,
			HTTP:         &http.Client{Timeout: cfg.HTTPTimeout},
			Logger:       logger,
			FallbackSeed: cfg.FallbackSeed,
			ForceFallback: func(ctx context.Context) bool {
				return pipeline.flags.Enabled(ctx, flags.KeyFallbackForced, false)
			},
		})
		provider = stream.NewPulsePoller(stream.PulsePollerConfig{
			Client:       client,
			PollInterval: cfg.PollInterval,
			BatchSize:    constants.DefaultLaunchLimit,
			Logger:       logger,
		})

	default:
		log.Fatalf("Unknown feed provider: %s", cfg.FeedProvider)
	}

	go func() {
		err := provider.Start(ctx, func(launch *models.LaunchEvent) {
			_ = pipeline.ProcessLaunch(ctx, launch)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("❌ Feed provider stopped: %v", err)
		}
	}()

	log.Println("✅ Feed pipeline running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	<-sigChan
	log.Println("🛑 Shutting down gracefully...")
	cancel()
}
