package live

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	kverrors "github.com/vango-dev/kvstore/internal/errors"
	"github.com/vango-dev/kvstore/pkg/store"
)

// writeWait bounds a single WebSocket write.
const writeWait = 10 * time.Second

// watcher is the store observer behind one watch connection.
type watcher struct {
	id  uint64
	key store.Key

	// pending holds at most one undelivered notification. Notify never
	// blocks the store, and notifications that arrive while one is pending
	// are folded into it.
	pending chan struct{}
}

func newWatcher(key store.Key) *watcher {
	return &watcher{
		id:      store.NextID(),
		key:     key,
		pending: make(chan struct{}, 1),
	}
}

func (w *watcher) ID() uint64 { return w.id }

func (w *watcher) Notify() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// handleWatch streams the entry for a key over a WebSocket: once on
// connect and once per coalesced change after that.
func (s *Server) handleWatch(rw http.ResponseWriter, r *http.Request) {
	key, err := keyFromPath(r)
	if err != nil {
		s.writeError(rw, err)
		return
	}

	var def any
	hasDefault := false
	if raw := r.URL.Query().Get("default"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			s.writeError(rw, kverrors.New("K041").
				WithDetail("The default query parameter must be JSON.").
				Wrap(err))
			return
		}
		hasDefault = true
	}

	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "key", string(key), "error", err)
		return
	}

	if hasDefault && !s.store.Has(key) {
		s.store.Initialize(key, def)
	}

	w := newWatcher(key)
	s.store.Subscribe(key, w)
	s.addWatcher(w, conn)
	s.logger.Debug("watch opened", "key", string(key), "watcher", w.id)

	defer func() {
		s.store.Unsubscribe(key, w)
		s.removeWatcher(w)
		conn.Close()
		s.logger.Debug("watch closed", "key", string(key), "watcher", w.id)
	}()

	// The client sends nothing; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.send(conn, key); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-w.pending:
			if err := s.send(conn, key); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, key store.Key) error {
	data, err := json.Marshal(s.entry(key))
	if err != nil {
		s.logger.Warn("value not encodable", "key", string(key), "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
