package gateway

import "sync"

// History keeps the last few signal envelopes for late websocket clients and
// for /api/signals. Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	limit   int
	seqs    []int64
	entries [][]byte // oldest first, parallel to seqs
}

// NewHistory creates a history holding at most limit envelopes.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultSignalHistory
	}
	return &History{limit: limit}
}

// Add stores a copy of env under seq. The oldest entry goes once full.
func (h *History) Add(seq int64, env []byte) {
	cp := append([]byte(nil), env...)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == h.limit {
		copy(h.seqs, h.seqs[1:])
		copy(h.entries, h.entries[1:])
		h.seqs = h.seqs[:h.limit-1]
		h.entries = h.entries[:h.limit-1]
	}
	h.seqs = append(h.seqs, seq)
	h.entries = append(h.entries, cp)
}

// After returns the envelopes whose seq is greater than seq, oldest first.
// After(0) returns everything.
func (h *History) After(seq int64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// seqs ascend, so the first match starts the tail.
	for i, s := range h.seqs {
		if s > seq {
			out := make([][]byte, len(h.entries)-i)
			copy(out, h.entries[i:])
			return out
		}
	}
	return nil
}

// Len returns the number of stored envelopes.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
