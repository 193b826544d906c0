package detect

import (
	"testing"
	"time"
)

// fakeClock steps a tracker's clock forward a fixed amount per call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func TestStaticTrackerCrossesTimeout(t *testing.T) {
	tracker := NewStaticTracker(30 * time.Second)
	clock := &fakeClock{t: time.Unix(1000, 0), step: time.Second}
	tracker.now = clock.now

	img := []byte("frame")

	// First sample: hash differs from empty state, so it's a change.
	res := tracker.Update(img)
	if res.IsStatic {
		t.Fatal("first sample must report changing")
	}

	// Identical samples at 1s cadence: still below the timeout after 29
	// more ticks (duration reaches 29s).
	for i := 0; i < 30; i++ {
		res = tracker.Update(img)
		if !res.IsStatic {
			t.Fatalf("tick %d: identical image should be static", i)
		}
	}
	if res.ShouldComplete {
		t.Fatalf("should not complete at %v, timeout is 30s", res.Duration)
	}

	// One more identical tick crosses 30s.
	res = tracker.Update(img)
	if !res.ShouldComplete {
		t.Errorf("should complete at %v", res.Duration)
	}
}

func TestStaticTrackerResetsOnChange(t *testing.T) {
	tracker := NewStaticTracker(30 * time.Second)
	clock := &fakeClock{t: time.Unix(1000, 0), step: time.Second}
	tracker.now = clock.now

	tracker.Update([]byte("a"))
	tracker.Update([]byte("a"))
	res := tracker.Update([]byte("a"))
	if !res.IsStatic || res.Duration == 0 {
		t.Fatalf("expected accumulating static duration, got %+v", res)
	}

	// A differing image resets everything.
	res = tracker.Update([]byte("b"))
	if res.IsStatic {
		t.Error("differing image must report changing")
	}
	if res.Duration != 0 {
		t.Errorf("duration = %v after change, want 0", res.Duration)
	}

	// The very next identical tick is static again but starts from zero.
	res = tracker.Update([]byte("b"))
	if !res.IsStatic {
		t.Error("identical follow-up should be static")
	}
	if res.ShouldComplete {
		t.Error("fresh static run must not complete immediately")
	}
}

func TestStaticTrackerReset(t *testing.T) {
	tracker := NewStaticTracker(time.Second)
	clock := &fakeClock{t: time.Unix(1000, 0), step: 2 * time.Second}
	tracker.now = clock.now

	tracker.Update([]byte("a"))
	tracker.Update([]byte("a"))
	res := tracker.Update([]byte("a"))
	if !res.ShouldComplete {
		t.Fatalf("setup: expected completion, got %+v", res)
	}

	tracker.Reset()
	res = tracker.Update([]byte("a"))
	if res.IsStatic {
		t.Error("after Reset the first sample must report changing")
	}
}
