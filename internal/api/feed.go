package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/logger"
)

// RunFeed pushes completed run summaries to websocket subscribers so the
// compliance dashboard updates without polling. Slow or broken subscribers
// are dropped rather than blocking a scan.
type RunFeed struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewRunFeed creates the feed.
func NewRunFeed(log *logger.Logger) *RunFeed {
	return &RunFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served from arbitrary hosts in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Serve upgrades the request and registers the subscriber.
func (f *RunFeed) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	count := len(f.conns)
	f.mu.Unlock()

	f.log.WithField("subscribers", count).Debug("Run feed subscriber connected")

	// Reader loop: we never expect client messages; reading surfaces closes.
	go func() {
		defer f.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends a run summary to every subscriber. Writes stay under the
// feed mutex: the websocket library allows at most one concurrent writer per
// connection, and a manual trigger can overlap a scheduled run.
func (f *RunFeed) Publish(summary *contracts.RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.conns {
		if err := conn.WriteJSON(summary); err != nil {
			f.log.WithError(err).Debug("Dropping run feed subscriber")
			delete(f.conns, conn)
			conn.Close()
		}
	}
}

func (f *RunFeed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.conns[conn]; ok {
		delete(f.conns, conn)
		conn.Close()
	}
	f.mu.Unlock()
}
