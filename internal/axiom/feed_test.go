package axiom

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/session"
)

// feedHarness is a venue-side fake: it upgrades connections, records the
// authorization header and the subscribe control message, and lets tests
// push frames or drop the connection.
type feedHarness struct {
	t   *testing.T
	srv *httptest.Server

	dials int32

	mu       sync.Mutex
	conn     *websocket.Conn
	auth     string
	sub      map[string]string
	upgraded chan struct{}
}

func newFeedHarness(t *testing.T) *feedHarness {
	h := &feedHarness{t: t, upgraded: make(chan struct{}, 16)}
	upgrader := websocket.Upgrader{}

	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.dials, 1)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			conn.Close()
			return
		}

		h.mu.Lock()
		h.conn = conn
		h.auth = r.Header.Get("Authorization")
		h.sub = sub
		h.mu.Unlock()
		h.upgraded <- struct{}{}

		// Hold the read side open so client-initiated closes are observed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *feedHarness) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *feedHarness) waitConnected() {
	select {
	case <-h.upgraded:
	case <-time.After(2 * time.Second):
		h.t.Fatal("feed did not connect in time")
	}
}

func (h *feedHarness) send(frame string) {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	require.NotNil(h.t, conn)
	require.NoError(h.t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (h *feedHarness) dropConnection() {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (h *feedHarness) dialCount() int32 {
	return atomic.LoadInt32(&h.dials)
}

func testFeed(h *feedHarness, delay time.Duration) *Feed {
	return NewFeed(FeedConfig{
		URL:            h.url(),
		Session:        readySession(),
		Logger:         testLogger(),
		ReconnectDelay: delay,
	})
}

func TestFeed_SingleConnectionManySubscribers(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	var mu sync.Mutex
	var order []string

	s1 := feed.Subscribe(func(ev models.LaunchEvent) {
		mu.Lock()
		order = append(order, "first:"+ev.Mint)
		mu.Unlock()
	})
	s2 := feed.Subscribe(func(ev models.LaunchEvent) {
		mu.Lock()
		order = append(order, "second:"+ev.Mint)
		mu.Unlock()
	})
	defer s1.Cancel()
	defer s2.Cancel()

	h.waitConnected()
	assert.Equal(t, int32(1), h.dialCount(), "two subscribers must share one connection")
	assert.Equal(t, "Bearer access-token", h.auth)
	assert.Equal(t, map[string]string{"type": "subscribe", "channel": "new_tokens"}, h.sub)

	h.send(`{"type":"new_token","data":{"mint":"M1","name":"Tok","liquiditySol":12}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"first:M1", "second:M1"}, order, "fan-out must follow registration order")
	mu.Unlock()
}

func TestFeed_UnsubscribeToZeroClosesConnection(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	s1 := feed.Subscribe(func(models.LaunchEvent) {})
	s2 := feed.Subscribe(func(models.LaunchEvent) {})
	h.waitConnected()

	s1.Cancel()
	assert.True(t, feed.Connected(), "connection is shared, one cancel must not close it")

	s2.Cancel()
	require.Eventually(t, func() bool { return !feed.Connected() }, 2*time.Second, 10*time.Millisecond)

	// Wait out several reconnect windows; the requested close must not redial.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), h.dialCount())
}

func TestFeed_ReconnectsWhileSubscribersRemain(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	sub := feed.Subscribe(func(models.LaunchEvent) {})
	defer sub.Cancel()
	h.waitConnected()
	require.Equal(t, int32(1), h.dialCount())

	h.dropConnection()
	h.waitConnected()
	assert.GreaterOrEqual(t, h.dialCount(), int32(2), "feed must redial after a lost connection")
	assert.True(t, feed.Connected())
}

func TestFeed_NoReconnectAfterLastUnsubscribe(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	sub := feed.Subscribe(func(models.LaunchEvent) {})
	h.waitConnected()

	sub.Cancel()
	require.Eventually(t, func() bool { return !feed.Connected() }, 2*time.Second, 10*time.Millisecond)

	// Wait out several reconnect windows; no redial may happen.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), h.dialCount())
	assert.Zero(t, feed.Subscribers())
}

func TestFeed_MalformedMessagesAreDropped(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	var got atomic.Int32
	sub := feed.Subscribe(func(models.LaunchEvent) { got.Add(1) })
	defer sub.Cancel()
	h.waitConnected()

	h.send(`{not json at all`)
	h.send(`{"type":"other","data":{}}`)
	h.send(`{"type":"new_token","data":"not an object"}`)
	h.send(`{"type":"new_token","data":{"mint":"OK1"}}`)

	require.Eventually(t, func() bool { return got.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, feed.Connected(), "malformed frames must not tear down the connection")
	assert.Equal(t, int32(1), h.dialCount())
}

func TestFeed_PanickingSubscriberIsIsolated(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	var delivered atomic.Int32
	s1 := feed.Subscribe(func(models.LaunchEvent) { panic("subscriber bug") })
	s2 := feed.Subscribe(func(models.LaunchEvent) { delivered.Add(1) })
	defer s1.Cancel()
	defer s2.Cancel()
	h.waitConnected()

	h.send(`{"type":"new_token","data":{"mint":"P1"}}`)
	h.send(`{"type":"new_token","data":{"mint":"P2"}}`)

	require.Eventually(t, func() bool { return delivered.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, feed.Connected())
}

func TestFeed_EventsDeliveredInArrivalOrder(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	var mu sync.Mutex
	var mints []string
	sub := feed.Subscribe(func(ev models.LaunchEvent) {
		mu.Lock()
		mints = append(mints, ev.Mint)
		mu.Unlock()
	})
	defer sub.Cancel()
	h.waitConnected()

	h.send(`{"type":"new_token","data":{"mint":"A"}}`)
	h.send(`{"type":"new_token","data":{"mint":"B"}}`)
	h.send(`{"type":"new_token","data":{"mint":"C"}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(mints) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"A", "B", "C"}, mints)
	mu.Unlock()
}

func TestFeed_NoDialWithoutCredentials(t *testing.T) {
	h := newFeedHarness(t)
	feed := NewFeed(FeedConfig{
		URL:            h.url(),
		Session:        session.NewStore("", ""),
		Logger:         testLogger(),
		ReconnectDelay: 50 * time.Millisecond,
	})

	sub := feed.Subscribe(func(models.LaunchEvent) {})
	defer sub.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, h.dialCount())
	assert.False(t, feed.Connected())
	assert.Equal(t, 1, feed.Subscribers())
}

func TestFeed_LaunchTimestampDefaultsToArrival(t *testing.T) {
	h := newFeedHarness(t)
	feed := testFeed(h, 50*time.Millisecond)

	events := make(chan models.LaunchEvent, 1)
	sub := feed.Subscribe(func(ev models.LaunchEvent) { events <- ev })
	defer sub.Cancel()
	h.waitConnected()

	before := time.Now()
	h.send(`{"type":"new_token","data":{"mint":"T1","name":"Fresh","symbol":"FRSH","liquiditySol":9.5,"deployer":"Dep"}}`)

	select {
	case ev := <-events:
		assert.Equal(t, "T1", ev.Mint)
		assert.Equal(t, 9.5, ev.LiquiditySol)
		assert.False(t, ev.Timestamp.Before(before))
		assert.False(t, ev.Timestamp.After(time.Now()))
	case <-time.After(2 * time.Second):
		t.Fatal("launch event not delivered")
	}
}
