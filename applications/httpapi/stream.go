package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/globalprime/inventory-platform/domain/position"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// DeltaHub fans out position deltas to every connected streaming client
// (the read-side counterpart of the event fabric's partition workers).
// Slow clients are dropped rather than allowed to backpressure the hub.
type DeltaHub struct {
	mu      sync.Mutex
	clients map[chan position.Delta]struct{}
	log     hotlog.Logger
}

// NewDeltaHub builds an empty hub.
func NewDeltaHub(log hotlog.Logger) *DeltaHub {
	return &DeltaHub{
		clients: make(map[chan position.Delta]struct{}),
		log:     log,
	}
}

// Publish is wired as positionengine.Engine's onDelta callback.
func (h *DeltaHub) Publish(d position.Delta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- d:
		default:
			// Client too slow to keep up; drop the delta for it rather than
			// block the publisher.
		}
	}
}

func (h *DeltaHub) subscribe() chan position.Delta {
	ch := make(chan position.Delta, 256)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *DeltaHub) unsubscribe(ch chan position.Delta) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// streamDeltas upgrades to a websocket connection and streams position
// deltas as they are published, until the client disconnects.
func (h *Handler) streamDeltas(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, errInvalid("delta stream not configured"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := h.Hub.subscribe()
	defer h.Hub.unsubscribe(ch)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case delta, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(delta)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
