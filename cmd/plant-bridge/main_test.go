package main

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/history"
	"github.com/sweeney/plant-bridge/internal/status"
	"github.com/sweeney/plant-bridge/internal/telemetry"
	"github.com/sweeney/plant-bridge/internal/throttle"
)

type recordedEvent struct {
	kind   string // "broadcast", "observe", "status"
	sample telemetry.Sample
	up     bool
}

// recorder implements both loop dependencies and keeps a single ordered
// event list, so tests can assert broadcast-before-observe.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(s telemetry.Sample) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{kind: "broadcast", sample: s})
	r.mu.Unlock()
}

func (r *recorder) SetBrokerStatus(up bool) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{kind: "status", up: up})
	r.mu.Unlock()
}

func (r *recorder) Observe(s telemetry.Sample) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{kind: "observe", sample: s})
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}

// fakeClock returns a time advancing by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func tempSample(v float64) telemetry.Sample {
	return telemetry.Sample{Temperature: &v}
}

func runLoopWith(t *testing.T, deps loopDeps, feed func(samples chan<- telemetry.Sample, transitions chan<- bool)) {
	t.Helper()
	samples := make(chan telemetry.Sample, 16)
	transitions := make(chan bool, 4)
	sig := make(chan os.Signal, 1)

	feed(samples, transitions)
	// Queue the shutdown last; the loop drains in select order but all
	// queued samples land before the signal because the channels are
	// buffered and processed by a single goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(deps, samples, transitions, sig)
	}()

	// Give the loop a moment to drain the buffered events, then stop it.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("loop did not drain in time")
		default:
		}
		if len(samples) == 0 && len(transitions) == 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	sig <- syscall.SIGTERM
	<-done
}

func newLoopDeps(rec *recorder, clock *fakeClock, minInterval time.Duration) (loopDeps, *status.Tracker, *history.Ring) {
	tracker := status.NewTracker(clock.now, status.Config{})
	ring := history.NewRing(10)
	return loopDeps{
		throttle: throttle.New(minInterval),
		tracker:  tracker,
		history:  ring,
		hub:      rec,
		engine:   rec,
		log:      zap.NewNop(),
		now:      clock.Now,
	}, tracker, ring
}

func TestRunLoopBroadcastsThenObserves(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), step: 10 * time.Second}
	deps, tracker, ring := newLoopDeps(rec, clock, 5*time.Second)

	runLoopWith(t, deps, func(samples chan<- telemetry.Sample, _ chan<- bool) {
		samples <- tempSample(20)
		samples <- tempSample(21)
	})

	kinds := rec.kinds()
	want := []string{"broadcast", "observe", "broadcast", "observe"}
	if len(kinds) != len(want) {
		t.Fatalf("events: %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events: %v, want %v", kinds, want)
		}
	}

	if got := tracker.Snapshot().Counters.Admitted; got != 2 {
		t.Errorf("admitted: got %d, want 2", got)
	}
	if ring.Len() != 2 {
		t.Errorf("history: got %d samples, want 2", ring.Len())
	}
}

func TestRunLoopThrottles(t *testing.T) {
	rec := &recorder{}
	// Clock does not advance: everything after the first sample is
	// inside the admission window.
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), step: 0}
	deps, tracker, _ := newLoopDeps(rec, clock, 5*time.Second)

	runLoopWith(t, deps, func(samples chan<- telemetry.Sample, _ chan<- bool) {
		for i := 0; i < 5; i++ {
			samples <- tempSample(20)
		}
	})

	kinds := rec.kinds()
	if len(kinds) != 2 {
		t.Fatalf("events: %v, want one broadcast+observe pair", kinds)
	}
	snap := tracker.Snapshot()
	if snap.Counters.Admitted != 1 || snap.Counters.Dropped != 4 {
		t.Errorf("counters: %+v", snap.Counters)
	}
}

func TestRunLoopStampsAdmissionTime(t *testing.T) {
	rec := &recorder{}
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start, step: 10 * time.Second}
	deps, _, _ := newLoopDeps(rec, clock, time.Second)

	runLoopWith(t, deps, func(samples chan<- telemetry.Sample, _ chan<- bool) {
		samples <- tempSample(20)
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.events[0].sample.Timestamp.Equal(start) {
		t.Errorf("timestamp: got %v, want %v", rec.events[0].sample.Timestamp, start)
	}
}

func TestRunLoopForwardsStatusTransitions(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Now(), step: time.Second}
	deps, _, _ := newLoopDeps(rec, clock, time.Second)

	runLoopWith(t, deps, func(_ chan<- telemetry.Sample, transitions chan<- bool) {
		transitions <- true
		transitions <- false
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var ups []bool
	for _, e := range rec.events {
		if e.kind == "status" {
			ups = append(ups, e.up)
		}
	}
	if len(ups) != 2 || !ups[0] || ups[1] {
		t.Errorf("transitions: %v, want [true false]", ups)
	}
}
