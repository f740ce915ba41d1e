// Package axiom integrates the Axiom trading venue: authenticated REST reads
// with defensive normalization of the untyped upstream schema, a curated
// synthetic fallback for degraded operation, and the realtime new-token feed.
package axiom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/observability"
	"github.com/PandoraOSgit/pandora-market-feed/internal/session"
)

// The venue expects a desktop browser user agent on every call.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoCredentials is returned by the fetch helpers when the session store
// has no token pair. Public getters translate it to fallback output.
var ErrNoCredentials = errors.New("venue credentials not configured")

// Config configures a Client. Session is required; everything else defaults.
type Config struct {
	APIBase   string
	PulseBase string
	Session   *session.Store
	HTTP      *http.Client
	Logger    *logrus.Logger

	// FallbackSeed pins the synthetic dataset RNG. Zero seeds from the clock.
	FallbackSeed int64

	// ForceFallback makes the getters skip the venue and serve synthetic
	// data whenever it returns true. Optional.
	ForceFallback func(context.Context) bool
}

// Client performs the venue's REST reads. All public getters are
// non-throwing: credential absence, transport errors and malformed payloads
// degrade to fallback data (or a nil miss for GetTokenInfo), never an error.
type Client struct {
	apiBase       string
	pulseBase     string
	session       *session.Store
	http          *http.Client
	log           *logrus.Logger
	fallback      *fallbackSource
	forceFallback func(context.Context) bool
}

func NewClient(cfg Config) *Client {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		apiBase = constants.DefaultAPIBase
	}
	pulseBase := strings.TrimRight(strings.TrimSpace(cfg.PulseBase), "/")
	if pulseBase == "" {
		pulseBase = constants.DefaultPulseBase
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		apiBase:       apiBase,
		pulseBase:     pulseBase,
		session:       cfg.Session,
		http:          cfg.HTTP,
		log:           cfg.Logger,
		fallback:      newFallbackSource(cfg.FallbackSeed),
		forceFallback: cfg.ForceFallback,
	}
}

// forced reports whether synthetic data was requested for this call.
func (c *Client) forced(ctx context.Context) bool {
	return c.forceFallback != nil && c.forceFallback(ctx)
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("axiom http %d", e.StatusCode)
	}
	return fmt.Sprintf("axiom http %d: %s", e.StatusCode, b)
}

// GetTrending returns the venue's trending list for the timeframe.
// Rank is the 1-based position in the list as received; the list is never
// re-sorted by score. Any failure yields the synthetic fallback set.
func (c *Client) GetTrending(ctx context.Context, timeframe models.Timeframe) []models.TrendingMetrics {
	tf := timeframe.Normalize()

	if c.forced(ctx) {
		observability.RecordVenueRequest("trending", "fallback")
		return c.fallback.Trending(tf)
	}

	q := url.Values{}
	q.Set("timePeriod", tf.String())

	start := time.Now()
	items, err := c.fetchList(ctx, c.apiBase+"/axiom-trending?"+q.Encode())
	observability.RecordVenueLatency("trending", time.Since(start).Seconds())
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"operation": "getTrending",
			"timeframe": tf,
		}).Warn("trending fetch failed, serving fallback dataset")
		observability.RecordVenueRequest("trending", "fallback")
		return c.fallback.Trending(tf)
	}

	out := make([]models.TrendingMetrics, 0, len(items))
	for i, raw := range items {
		out = append(out, normalizeTrending(raw, i+1))
	}
	observability.RecordVenueRequest("trending", "live")
	return out
}

// GetTokenInfo returns one normalized token, or nil when the venue has no
// record, credentials are absent, or the call fails. There is no meaningful
// per-mint synthetic fallback.
func (c *Client) GetTokenInfo(ctx context.Context, mint string) *models.TokenMetrics {
	// No synthetic substitute for a single pair; forced fallback is a miss.
	if c.forced(ctx) {
		observability.RecordVenueRequest("token_info", "miss")
		return nil
	}

	q := url.Values{}
	q.Set("pairAddress", mint)

	start := time.Now()
	raw, err := c.fetchObject(ctx, c.apiBase+"/pair-info?"+q.Encode())
	observability.RecordVenueLatency("token_info", time.Since(start).Seconds())
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"operation": "getTokenInfo",
			"mint":      mint,
		}).Warn("token info fetch failed")
		observability.RecordVenueRequest("token_info", "miss")
		return nil
	}

	token := normalizeToken(raw)
	if token.Mint == "" {
		token.Mint = mint
	}
	observability.RecordVenueRequest("token_info", "live")
	return &token
}

// GetNewLaunches returns the most recent launches from the pulse endpoint,
// truncated to limit. Launches missing a timestamp are stamped with arrival
// time. Any failure yields the synthetic fallback set.
func (c *Client) GetNewLaunches(ctx context.Context, limit int) []models.LaunchEvent {
	if limit <= 0 {
		limit = constants.DefaultLaunchLimit
	}

	if c.forced(ctx) {
		observability.RecordVenueRequest("launches", "fallback")
		return c.fallback.Launches(limit)
	}

	start := time.Now()
	items, err := c.fetchList(ctx, c.pulseBase+"/pulse")
	observability.RecordVenueLatency("launches", time.Since(start).Seconds())
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"operation": "getNewLaunches",
			"limit":     limit,
		}).Warn("pulse fetch failed, serving fallback dataset")
		observability.RecordVenueRequest("launches", "fallback")
		return c.fallback.Launches(limit)
	}

	if len(items) > limit {
		items = items[:limit]
	}

	arrival := time.Now()
	out := make([]models.LaunchEvent, 0, len(items))
	for _, raw := range items {
		out = append(out, normalizeLaunch(raw, arrival))
	}
	observability.RecordVenueRequest("launches", "live")
	return out
}

// fetchList fetches and decodes a token list, accepting either a bare JSON
// array or an enveloped {data|tokens|pulse|items: [...]} response.
func (c *Client) fetchList(ctx context.Context, u string) ([]payload, error) {
	body, err := c.doGet(ctx, u)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func (c *Client) fetchObject(ctx context.Context, u string) (payload, error) {
	body, err := c.doGet(ctx, u)
	if err != nil {
		return nil, err
	}
	var raw payload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode venue response: %w", err)
	}
	return raw, nil
}

// doGet issues an authenticated GET. Fails closed without credentials; the
// session cookie and the fixed user agent are the only authentication.
func (c *Client) doGet(ctx context.Context, u string) ([]byte, error) {
	if c.session == nil || !c.session.Ready() {
		return nil, ErrNoCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.session.Cookie())

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}

// Envelope keys tried, in order, when the venue wraps a list response.
var listEnvelopeKeys = []string{"data", "tokens", "pulse", "items"}

func decodeList(body []byte) ([]payload, error) {
	var list []payload
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode venue response: %w", err)
	}
	for _, key := range listEnvelopeKeys {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
	}
	return nil, fmt.Errorf("no token list in venue response")
}
