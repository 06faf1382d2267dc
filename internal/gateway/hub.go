// Package gateway pushes per-cycle indicator info and alerted signals to
// websocket clients, and serves the latest snapshot over REST.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"alert-systemv1/internal/signal"
)

// Envelope types.
const (
	TypeInfo   = "info"
	TypeSignal = "signal"
)

const defaultSignalHistory = 50

// Hub manages websocket clients. Broadcast* calls never block the caller:
// a client whose send queue is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64

	latestInfo     []byte // last info envelope
	latestInfoData signal.Info
	hasInfo        bool

	// recent signal envelopes, replayed to new clients
	signals *History

	// OnClientCount is called with the new count after every (dis)connect.
	OnClientCount func(n int)

	now func() time.Time
}

// NewHub creates a hub remembering the last signalHistory alerted signals.
func NewHub(signalHistory int) *Hub {
	if signalHistory <= 0 {
		signalHistory = defaultSignalHistory
	}
	return &Hub{
		clients: make(map[*Client]bool),
		signals: NewHistory(signalHistory),
		now:     time.Now,
	}
}

// BroadcastInfo sends the cycle's info payload to every client and keeps it
// as the latest snapshot.
func (h *Hub) BroadcastInfo(info signal.Info) {
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	env := h.envelope(TypeInfo, data, func(buf []byte) {
		h.latestInfo = buf
		h.latestInfoData = info
		h.hasInfo = true
	})
	h.fanOut(env)
}

// BroadcastSignal sends an alerted event to every client and appends it to
// the replay history.
func (h *Hub) BroadcastSignal(ev signal.Event) {
	var seq int64
	env := h.envelope(TypeSignal, ev.JSON(), func(buf []byte) {
		seq = h.seq
	})
	h.signals.Add(seq, env)
	h.fanOut(env)
}

// envelope builds {"type":…,"seq":N,"ts":"…","data":…} under the hub lock.
// store runs with the lock held.
func (h *Hub) envelope(typ string, data []byte, store func(buf []byte)) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	now := h.now().UTC()

	buf := make([]byte, 0, len(data)+96)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, typ...)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, h.seq, 10)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')

	store(buf)
	return buf
}

func (h *Hub) fanOut(env []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- env:
		default:
		}
	}
}

// LatestInfo returns the most recent info payload.
func (h *Hub) LatestInfo() (signal.Info, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latestInfoData, h.hasInfo
}

// RecentSignals returns the buffered signal envelopes with seq > after,
// oldest first.
func (h *Hub) RecentSignals(after int64) [][]byte {
	return h.signals.After(after)
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// ServeWS upgrades the request and registers the client. The client first
// receives the latest info and the signal history, then live envelopes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}
	client := newClient(h, conn)

	// Register and queue the initial state under one lock so no live
	// envelope can slip in between.
	h.mu.Lock()
	for _, env := range h.signals.After(0) {
		client.enqueue(env)
	}
	if h.latestInfo != nil {
		client.enqueue(h.latestInfo)
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters a client and closes its send queue. Safe to call
// more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}
