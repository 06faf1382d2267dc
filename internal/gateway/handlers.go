package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// Router is the subset of http.ServeMux used to mount gateway routes.
type Router interface {
	Handle(pattern string, h http.Handler)
}

// RegisterRoutes mounts /ws, /api/latest and /api/signals.
func RegisterRoutes(r Router, h *Hub) {
	r.Handle("/ws", http.HandlerFunc(h.ServeWS))
	r.Handle("/api/latest", http.HandlerFunc(h.handleLatest))
	r.Handle("/api/signals", http.HandlerFunc(h.handleSignals))
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleLatest returns the most recent info payload, or 204 before the
// first successful cycle.
func (h *Hub) handleLatest(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	info, ok := h.LatestInfo()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleSignals returns the recent signal envelopes as a JSON array,
// optionally only those after ?after=<seq>.
func (h *Hub) handleSignals(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "after must be a non-negative sequence number", http.StatusBadRequest)
			return
		}
		after = n
	}
	envs := h.RecentSignals(after)

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range envs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(e)
	}
	buf.WriteByte(']')

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}
