// Package status provides a thread-safe status tracker for the bridge.
// It is read by the HTTP status endpoint and the heartbeat publisher.
package status

import (
	"sync"
	"time"
)

// Config contains bridge configuration for display.
type Config struct {
	Broker         string
	TelemetryTopic string
	CommandTopic   string
	HTTPAddr       string
	ThrottleMs     int64
}

// Counters tracks event totals since startup.
type Counters struct {
	Admitted       int // telemetry samples admitted by the throttle
	Dropped        int // telemetry samples dropped by the throttle
	ManualCommands int // commands issued by clients
	AutoCommands   int // commands issued by the automation engine
}

// Snapshot is a point-in-time view of bridge state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	StartTime       time.Time
	Now             time.Time
	BrokerConnected bool
	Clients         int
	Counters        Counters
	Config          Config
}

// Uptime returns the duration since the bridge started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable bridge state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetBrokerConnected sets the broker connection status.
func (t *Tracker) SetBrokerConnected(connected bool) {
	t.mu.Lock()
	t.snap.BrokerConnected = connected
	t.mu.Unlock()
}

// SetClients sets the number of connected websocket clients.
func (t *Tracker) SetClients(n int) {
	t.mu.Lock()
	t.snap.Clients = n
	t.mu.Unlock()
}

// SampleAdmitted counts one admitted telemetry sample.
func (t *Tracker) SampleAdmitted() {
	t.mu.Lock()
	t.snap.Counters.Admitted++
	t.mu.Unlock()
}

// SampleDropped counts one throttled telemetry sample.
func (t *Tracker) SampleDropped() {
	t.mu.Lock()
	t.snap.Counters.Dropped++
	t.mu.Unlock()
}

// ManualCommand counts one client-issued command.
func (t *Tracker) ManualCommand() {
	t.mu.Lock()
	t.snap.Counters.ManualCommands++
	t.mu.Unlock()
}

// AutoCommand counts one automation-issued command.
func (t *Tracker) AutoCommand() {
	t.mu.Lock()
	t.snap.Counters.AutoCommands++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the bridge state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
