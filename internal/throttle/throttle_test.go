package throttle

import (
	"testing"
	"time"
)

func TestFirstSampleAlwaysAdmitted(t *testing.T) {
	tr := New(5 * time.Second)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if !tr.Admit(now) {
		t.Error("first sample should be admitted")
	}
}

func TestDropsInsideInterval(t *testing.T) {
	tr := New(5 * time.Second)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.Admit(now)
	if tr.Admit(now.Add(1 * time.Second)) {
		t.Error("sample 1s after admission should be dropped")
	}
	if tr.Admit(now.Add(4999 * time.Millisecond)) {
		t.Error("sample just under the interval should be dropped")
	}
	if !tr.Admit(now.Add(5 * time.Second)) {
		t.Error("sample at exactly the interval should be admitted")
	}
}

func TestDropDoesNotResetWindow(t *testing.T) {
	tr := New(5 * time.Second)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.Admit(now)
	// A burst of drops must not push the next admission further out.
	for i := 1; i <= 4; i++ {
		tr.Admit(now.Add(time.Duration(i) * time.Second))
	}
	if !tr.Admit(now.Add(5 * time.Second)) {
		t.Error("admission window should be measured from the last admit, not the last drop")
	}
}

func TestAdmittedIntervalsNeverBelowMinimum(t *testing.T) {
	tr := New(3 * time.Second)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var admitted []time.Time
	// Samples every 700ms for a minute.
	for i := 0; i < 90; i++ {
		now := start.Add(time.Duration(i) * 700 * time.Millisecond)
		if tr.Admit(now) {
			admitted = append(admitted, now)
		}
	}

	if len(admitted) < 2 {
		t.Fatalf("expected multiple admissions, got %d", len(admitted))
	}
	for i := 1; i < len(admitted); i++ {
		if gap := admitted[i].Sub(admitted[i-1]); gap < 3*time.Second {
			t.Errorf("admissions %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func TestZeroIntervalAdmitsEverything(t *testing.T) {
	tr := New(0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if !tr.Admit(now) {
			t.Fatalf("sample %d should be admitted with zero interval", i)
		}
	}
}
