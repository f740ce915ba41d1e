package storage

import (
	"context"
	"io"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
)

// LaunchCache defines the interface for caching launch and token data
type LaunchCache interface {
	// AddRecentLaunch adds a launch to the recent launches list
	AddRecentLaunch(ctx context.Context, launch *models.LaunchEvent) error

	// GetRecentLaunches retrieves the most recent launches
	GetRecentLaunches(ctx context.Context, limit int64) ([]*models.LaunchEvent, error)

	// SetTokenMetrics caches metrics for a mint with a short TTL
	SetTokenMetrics(ctx context.Context, metrics *models.TokenMetrics) error

	// GetTokenMetrics retrieves cached metrics for a mint
	GetTokenMetrics(ctx context.Context, mint string) (*models.TokenMetrics, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer

	// PublishLaunch publishes a launch event to the Pub/Sub channels
	PublishLaunch(ctx context.Context, launch *models.LaunchEvent) error

	// SubscribeLaunches subscribes to real-time launch events
	SubscribeLaunches(ctx context.Context) (<-chan *models.LaunchEvent, error)
}

// LaunchStore defines the interface for persistent launch storage
type LaunchStore interface {
	// InsertLaunch inserts a launch event into the store
	InsertLaunch(ctx context.Context, launch *models.LaunchEvent) error

	// InsertSignal inserts a computed analysis into the store
	InsertSignal(ctx context.Context, analysis *models.Analysis) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// LaunchHandler is a function that processes launch events
type LaunchHandler func(*models.LaunchEvent)

// LaunchProvider defines the interface for launch event streaming
type LaunchProvider interface {
	// Start begins streaming launch events
	Start(ctx context.Context, handler LaunchHandler) error

	// Stop stops the provider
	Stop() error
}
