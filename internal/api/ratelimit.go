package api

import (
	"sync"
	"time"
)

// RateLimit tracks manual refreshes using a sliding window.
type RateLimit struct {
	mu       sync.Mutex
	window   time.Duration
	maxReqs  int
	requests []time.Time // timestamps of recent requests
	now      func() time.Time
}

// NewRateLimit creates a rate limiter with the given window and max requests.
// Example: NewRateLimit(6, time.Minute) allows 6 refreshes per minute.
func NewRateLimit(maxReqs int, window time.Duration) *RateLimit {
	return &RateLimit{
		window:  window,
		maxReqs: maxReqs,
		now:     time.Now,
	}
}

// prune removes expired timestamps (older than window).
// Must be called with mu held.
func (r *RateLimit) prune() {
	cutoff := r.now().Add(-r.window)
	i := 0
	for i < len(r.requests) && r.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		r.requests = r.requests[i:]
	}
}

// Take records a request if one is available and reports whether it was.
func (r *RateLimit) Take() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	if len(r.requests) >= r.maxReqs {
		return false
	}
	r.requests = append(r.requests, r.now())
	return true
}

// Remaining returns how many requests can still be made in the current window.
func (r *RateLimit) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	rem := r.maxReqs - len(r.requests)
	if rem < 0 {
		return 0
	}
	return rem
}

// WaitDuration returns how long to wait before another request can be made.
// Returns 0 if a request can be made immediately.
func (r *RateLimit) WaitDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune()
	if len(r.requests) < r.maxReqs {
		return 0
	}
	// The oldest request in the window determines when next slot opens.
	wait := r.requests[0].Add(r.window).Sub(r.now())
	if wait < 0 {
		return 0
	}
	return wait
}
