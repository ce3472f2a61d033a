package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/logger"
)

func dialFeed(t *testing.T, feed *RunFeed) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(feed.Serve))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	waitForSubscribers(t, feed, 1)
	return conn
}

func waitForSubscribers(t *testing.T, feed *RunFeed, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		feed.mu.Lock()
		count := len(feed.conns)
		feed.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("feed did not reach %d subscribers in time", n)
}

func testSummary() *contracts.RunSummary {
	return &contracts.RunSummary{
		RunDate:    contracts.NewDate(2026, time.August, 28),
		EmailsSent: 2,
		Errors:     []contracts.RecordError{},
	}
}

func TestRunFeedPublish(t *testing.T) {
	feed := NewRunFeed(logger.NewNop())
	conn := dialFeed(t, feed)

	feed.Publish(testSummary())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got contracts.RunSummary
	require.NoError(t, conn.ReadJSON(&got))

	assert.True(t, got.RunDate.Equal(contracts.NewDate(2026, time.August, 28)))
	assert.Equal(t, 2, got.EmailsSent)
}

func TestRunFeedConcurrentPublish(t *testing.T) {
	// A manual trigger can overlap a scheduled run; concurrent publishes
	// must serialize per connection.
	feed := NewRunFeed(logger.NewNop())
	conn := dialFeed(t, feed)

	const publishers = 8

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Publish(testSummary())
		}()
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < publishers; i++ {
		var got contracts.RunSummary
		require.NoError(t, conn.ReadJSON(&got))
	}
	wg.Wait()
}

func TestRunFeedDropsClosedSubscriber(t *testing.T) {
	feed := NewRunFeed(logger.NewNop())
	conn := dialFeed(t, feed)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		feed.Publish(testSummary())

		feed.mu.Lock()
		remaining := len(feed.conns)
		feed.mu.Unlock()
		if remaining == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("closed subscriber was not dropped in time")
}
