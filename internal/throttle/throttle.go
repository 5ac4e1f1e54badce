// Package throttle rate-limits telemetry admission. The device can emit
// several samples per second; everything downstream (broadcast, history,
// automation) runs at the admitted cadence instead. A dropped sample is
// lost, not queued — last value wins.
// Time is always injectable via time.Time parameters.
package throttle

import "time"

// Throttle admits at most one sample per minimum interval.
// Not safe for concurrent use — caller must synchronize.
type Throttle struct {
	minInterval  time.Duration
	lastAdmitted time.Time
	admittedAny  bool
}

// New creates a Throttle with the given minimum inter-admission interval.
// A non-positive interval admits everything.
func New(minInterval time.Duration) *Throttle {
	return &Throttle{minInterval: minInterval}
}

// Admit reports whether a sample arriving at now should be kept. The first
// sample is always admitted.
func (t *Throttle) Admit(now time.Time) bool {
	if t.admittedAny && now.Sub(t.lastAdmitted) < t.minInterval {
		return false
	}
	t.lastAdmitted = now
	t.admittedAny = true
	return true
}
