package axiom

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/observability"
	"github.com/PandoraOSgit/pandora-market-feed/internal/session"
)

// DefaultReconnectDelay is the fixed wait between reconnection attempts.
// There is no backoff growth and no retry ceiling: while at least one
// subscriber remains the feed keeps retrying at this cadence.
const DefaultReconnectDelay = 5 * time.Second

// FeedConfig configures the realtime feed. Session is required.
type FeedConfig struct {
	URL            string
	Session        *session.Store
	Logger         *logrus.Logger
	ReconnectDelay time.Duration
	Dialer         *websocket.Dialer
}

// Feed owns the single shared socket connection to the venue's push channel
// and fans "new token" events out to registered subscribers. The connection
// is reference-counted by subscriber-list length: at most one live handle
// exists regardless of subscriber count, and a handle exists only while the
// subscriber set is non-empty.
type Feed struct {
	url     string
	session *session.Store
	log     *logrus.Logger
	delay   time.Duration
	dialer  *websocket.Dialer

	mu      sync.Mutex
	subs    []*Subscription
	conn    *websocket.Conn
	dialing bool
}

// Subscription identifies one registered callback. Cancel removes it; when
// the last subscription is cancelled the connection is actively closed.
type Subscription struct {
	feed *Feed
	fn   func(models.LaunchEvent)
	once sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() { s.feed.remove(s) })
}

func NewFeed(cfg FeedConfig) *Feed {
	if cfg.URL == "" {
		cfg.URL = constants.DefaultWSURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Feed{
		url:     cfg.URL,
		session: cfg.Session,
		log:     cfg.Logger,
		delay:   cfg.ReconnectDelay,
		dialer:  cfg.Dialer,
	}
}

// Subscribe registers fn for launch events, in registration order.
// Duplicate callbacks are allowed; each Subscription is its own handle.
// The first subscriber with credentials available triggers the dial.
func (f *Feed) Subscribe(fn func(models.LaunchEvent)) *Subscription {
	sub := &Subscription{feed: f, fn: fn}

	f.mu.Lock()
	f.subs = append(f.subs, sub)
	dial := f.conn == nil && !f.dialing && f.session != nil && f.session.Ready()
	if dial {
		f.dialing = true
	}
	f.mu.Unlock()

	if dial {
		go f.connect()
	}
	return sub
}

// Subscribers returns the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Connected reports whether a live connection handle exists.
func (f *Feed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn != nil
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			break
		}
	}
	var closing *websocket.Conn
	if len(f.subs) == 0 && f.conn != nil {
		closing = f.conn
		f.conn = nil
	}
	f.mu.Unlock()

	if closing != nil {
		closing.Close()
		f.log.Info("feed closed, no subscribers remain")
	}
}

// connect dials the venue. Runs with f.dialing held true; every exit either
// hands off to the read loop, schedules a retry, or clears the flag.
// Subscriber count is re-checked before establishing: a connection is never
// held open for an empty registry.
func (f *Feed) connect() {
	f.mu.Lock()
	if len(f.subs) == 0 || f.conn != nil {
		f.dialing = false
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	if f.session == nil || !f.session.Ready() {
		f.mu.Lock()
		f.dialing = false
		f.mu.Unlock()
		f.log.Warn("feed connect skipped, credentials not configured")
		return
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.session.Bearer())

	conn, _, err := f.dialer.Dial(f.url, header)
	if err != nil {
		f.log.WithError(err).WithField("url", f.url).Warn("feed dial failed")
		f.retryOrIdle()
		return
	}

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "channel": "new_tokens"}); err != nil {
		conn.Close()
		f.log.WithError(err).Warn("feed channel subscribe failed")
		f.retryOrIdle()
		return
	}

	f.mu.Lock()
	if len(f.subs) == 0 {
		f.dialing = false
		f.mu.Unlock()
		conn.Close()
		return
	}
	f.conn = conn
	f.dialing = false
	f.mu.Unlock()

	f.log.WithField("url", f.url).Info("feed connected")
	observability.RecordFeedConnect()
	go f.readLoop(conn)
}

// retryOrIdle schedules the next attempt at the fixed cadence if subscribers
// remain, otherwise returns the feed to idle.
func (f *Feed) retryOrIdle() {
	f.mu.Lock()
	retry := len(f.subs) > 0
	if !retry {
		f.dialing = false
	}
	f.mu.Unlock()

	if retry {
		time.AfterFunc(f.delay, f.connect)
	}
}

func (f *Feed) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			f.onClose(conn, err)
			return
		}
		f.dispatch(data)
	}
}

// onClose tears down one observed connection. Requested and observed closes
// take the same path; reconnection is scheduled only when subscribers remain
// at the time the close was seen.
func (f *Feed) onClose(conn *websocket.Conn, err error) {
	conn.Close()

	f.mu.Lock()
	if f.conn == conn {
		f.conn = nil
	}
	remaining := len(f.subs)
	retry := remaining > 0 && !f.dialing
	if retry {
		f.dialing = true
	}
	f.mu.Unlock()

	if remaining > 0 {
		f.log.WithError(err).WithField("retry_in", f.delay).Warn("feed connection lost")
		observability.RecordFeedDisconnect()
	}
	if retry {
		time.AfterFunc(f.delay, f.connect)
	}
}

type feedMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// dispatch parses one inbound frame and fans a new_token event out to every
// subscriber in registration order, synchronously, with the same event.
// Parse failures drop the frame without touching the connection.
func (f *Feed) dispatch(data []byte) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.log.WithError(err).Debug("dropping malformed feed message")
		observability.RecordFeedDropped()
		return
	}
	if msg.Type != "new_token" {
		return
	}

	var raw payload
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		f.log.WithError(err).Debug("dropping malformed new_token payload")
		observability.RecordFeedDropped()
		return
	}
	event := normalizeLaunch(raw, time.Now())
	observability.RecordFeedEvent()

	f.mu.Lock()
	subs := make([]*Subscription, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		f.deliver(sub, event)
	}
}

// deliver isolates one callback invocation: a panicking subscriber must not
// suppress delivery to the rest.
func (f *Feed) deliver(sub *Subscription, event models.LaunchEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.log.WithFields(logrus.Fields{
				"panic": r,
				"mint":  event.Mint,
			}).Error("launch subscriber panicked")
			observability.RecordSubscriberPanic()
		}
	}()
	sub.fn(event)
}
