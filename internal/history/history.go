// Package history keeps a fixed-capacity ring of recently admitted
// telemetry samples for the /api/history endpoint. It is a chart cache,
// not a time-series store — the oldest sample is overwritten once the
// ring is full.
package history

import (
	"sync"

	"github.com/sweeney/plant-bridge/internal/telemetry"
)

// Ring is a fixed-capacity FIFO of admitted samples.
// Safe for concurrent use.
type Ring struct {
	mu       sync.Mutex
	buf      []telemetry.Sample
	capacity int
	head     int // next write position
	count    int
}

// NewRing creates a Ring holding up to capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		buf:      make([]telemetry.Sample, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, overwriting the oldest once full.
func (r *Ring) Push(s telemetry.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.head] = s
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// Recent returns up to limit samples in arrival order, newest last.
// A non-positive limit returns everything held.
func (r *Ring) Recent(limit int) []telemetry.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}

	result := make([]telemetry.Sample, n)
	// Newest item is at head-1; walk back n slots for the start.
	start := (r.head - n + r.capacity) % r.capacity
	for i := 0; i < n; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}
	return result
}

// Len returns the number of samples held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
