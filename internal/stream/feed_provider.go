package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/PandoraOSgit/pandora-market-feed/internal/axiom"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/storage"
)

// FeedProvider adapts the realtime WebSocket feed to LaunchProvider so the
// pipeline can run on either transport.
type FeedProvider struct {
	feed   *axiom.Feed
	logger *logrus.Logger

	mu  sync.Mutex
	sub *axiom.Subscription
}

func NewFeedProvider(feed *axiom.Feed, logger *logrus.Logger) *FeedProvider {
	if logger == nil {
		logger = logrus.New()
	}
	return &FeedProvider{feed: feed, logger: logger}
}

var _ storage.LaunchProvider = (*FeedProvider)(nil)

// Start subscribes to the feed and blocks until ctx is cancelled
func (f *FeedProvider) Start(ctx context.Context, handler storage.LaunchHandler) error {
	f.mu.Lock()
	if f.sub != nil {
		f.mu.Unlock()
		return fmt.Errorf("provider already running")
	}
	f.sub = f.feed.Subscribe(func(event models.LaunchEvent) {
		handler(&event)
	})
	f.mu.Unlock()

	f.logger.Info("subscribed to realtime launch feed")

	<-ctx.Done()

	// Dropping the last subscription closes the socket
	if err := f.Stop(); err != nil {
		f.logger.WithError(err).Warn("failed to stop feed provider")
	}
	return ctx.Err()
}

// Stop cancels the feed subscription
func (f *FeedProvider) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub != nil {
		f.sub.Cancel()
		f.sub = nil
	}
	return nil
}
