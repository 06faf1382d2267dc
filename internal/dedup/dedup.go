// Package dedup remembers the candle timestamps that have already produced an
// alert, so a signal on the same candle is never delivered twice.
//
// By default the set is unbounded and lives for the lifetime of the process.
// With a positive capacity the oldest timestamps are evicted through a ring,
// which keeps memory flat on long-running deployments.
package dedup

import "sync"

// Set is a concurrency-safe set of candle timestamps (epoch ms).
type Set struct {
	mu   sync.Mutex
	seen map[int64]struct{}

	// ring holds insertion order when bounded; nil when unbounded.
	ring  []int64
	mask  uint64
	head  uint64
	evict uint64
}

// New creates an unbounded Set.
func New() *Set {
	return &Set{seen: make(map[int64]struct{})}
}

// NewBounded creates a Set that keeps at most the most recent capacity
// timestamps. capacity is rounded up to the next power of two. A capacity of
// zero or less yields an unbounded Set.
func NewBounded(capacity int) *Set {
	if capacity <= 0 {
		return New()
	}
	size := nextPow2(capacity)
	return &Set{
		seen: make(map[int64]struct{}, size),
		ring: make([]int64, size),
		mask: uint64(size - 1),
	}
}

// Seen reports whether ts has been marked.
func (s *Set) Seen(ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[ts]
	return ok
}

// Mark records ts. It returns false if ts was already present.
func (s *Set) Mark(ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[ts]; ok {
		return false
	}
	if s.ring != nil {
		if s.head >= uint64(len(s.ring)) {
			oldest := s.ring[s.head&s.mask]
			delete(s.seen, oldest)
			s.evict++
		}
		s.ring[s.head&s.mask] = ts
		s.head++
	}
	s.seen[ts] = struct{}{}
	return true
}

// Len returns the number of remembered timestamps.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Cap returns the ring capacity, or 0 for an unbounded Set.
func (s *Set) Cap() int {
	return len(s.ring)
}

// Evicted returns how many timestamps were dropped to respect the capacity.
func (s *Set) Evicted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evict
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
