package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

// Runtime kill switches for the launch pipeline.
const (
	// KeyFeedEnabled gates the whole ingest loop. Off means events are read
	// and dropped without scoring or persistence.
	KeyFeedEnabled = "feed.enabled"

	// KeyFallbackForced makes the market client serve synthetic data even
	// when the venue is reachable. Useful for demos and load tests.
	KeyFallbackForced = "fallback.forced"

	// KeySignalsPersist controls whether computed signals are written to
	// ClickHouse in addition to being cached.
	KeySignalsPersist = "signals.persist"
)

// Defaults returns the flag values assumed when a key has never been set.
func Defaults() map[string]bool {
	return map[string]bool{
		KeyFeedEnabled:    true,
		KeyFallbackForced: false,
		KeySignalsPersist: true,
	}
}

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
