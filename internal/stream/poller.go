package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PandoraOSgit/pandora-market-feed/internal/axiom"
	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/storage"
)

// seenTTL bounds the de-dup table. The pulse window only covers recent
// launches, so anything older than this cannot reappear.
const seenTTL = 30 * time.Minute

// PulsePoller implements LaunchProvider by polling the pulse endpoint
type PulsePoller struct {
	client       *axiom.Client
	pollInterval time.Duration
	batchSize    int
	logger       *logrus.Logger

	mu      sync.RWMutex
	seen    map[string]time.Time
	running bool
}

// PulsePollerConfig holds configuration for the pulse poller
type PulsePollerConfig struct {
	Client       *axiom.Client
	PollInterval time.Duration
	BatchSize    int
	Logger       *logrus.Logger
}

// NewPulsePoller creates a new pulse poller
func NewPulsePoller(cfg PulsePollerConfig) *PulsePoller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = constants.DefaultLaunchLimit
	}

	return &PulsePoller{
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		logger:       cfg.Logger,
		seen:         make(map[string]time.Time),
	}
}

var _ storage.LaunchProvider = (*PulsePoller)(nil)

// Start begins polling for launch events
func (p *PulsePoller) Start(ctx context.Context, handler storage.LaunchHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.WithFields(logrus.Fields{
		"interval": p.pollInterval,
		"batch":    p.batchSize,
	}).Info("starting pulse polling")

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			if emitted := p.poll(ctx, handler); emitted > 0 {
				p.logger.WithField("count", emitted).Info("found new launches")
			} else {
				p.logger.Debug("no new launches")
			}
		}
	}
}

// Stop stops the poller
func (p *PulsePoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	return nil
}

// poll fetches the pulse window and emits launches not seen before
func (p *PulsePoller) poll(ctx context.Context, handler storage.LaunchHandler) int {
	launches := p.client.GetNewLaunches(ctx, p.batchSize)

	p.prune()

	emitted := 0
	for i := range launches {
		launch := launches[i]
		if launch.Mint == "" {
			continue
		}

		p.mu.Lock()
		if _, dup := p.seen[launch.Mint]; dup {
			p.mu.Unlock()
			continue
		}
		p.seen[launch.Mint] = time.Now()
		p.mu.Unlock()

		p.logger.WithFields(logrus.Fields{
			"mint":   launch.Mint,
			"symbol": launch.Symbol,
		}).Debug("emitting launch")

		handler(&launch)
		emitted++
	}

	return emitted
}

// prune drops de-dup entries old enough to have left the pulse window
func (p *PulsePoller) prune() {
	cutoff := time.Now().Add(-seenTTL)

	p.mu.Lock()
	defer p.mu.Unlock()

	for mint, at := range p.seen {
		if at.Before(cutoff) {
			delete(p.seen, mint)
		}
	}
}
