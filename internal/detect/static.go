// Package detect holds the deterministic completion detectors: the
// static-screen tracker, the task classifier, and the completion
// arbiter that folds every signal into one verdict per tick.
package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// StaticResult reports whether the screen has stopped changing.
type StaticResult struct {
	IsStatic       bool
	Duration       time.Duration
	ShouldComplete bool
	LastChange     time.Time
}

// StaticTracker hashes successive screen captures and tracks how long
// the hash has been unchanged. Duration is undefined before the second
// identical sample; any change resets it to zero.
type StaticTracker struct {
	timeout time.Duration

	lastHash    string
	lastChange  time.Time
	staticSince time.Time

	now func() time.Time
}

// NewStaticTracker creates a tracker that reports ShouldComplete once
// the screen has been static for timeout.
func NewStaticTracker(timeout time.Duration) *StaticTracker {
	return &StaticTracker{
		timeout: timeout,
		now:     time.Now,
	}
}

// Update feeds a new capture and returns the current static state.
func (t *StaticTracker) Update(image []byte) StaticResult {
	sum := sha256.Sum256(image)
	hash := hex.EncodeToString(sum[:])
	now := t.now()

	if hash != t.lastHash {
		t.lastHash = hash
		t.lastChange = now
		t.staticSince = time.Time{}
		return StaticResult{
			IsStatic:   false,
			LastChange: now,
		}
	}

	if t.staticSince.IsZero() {
		t.staticSince = now
	}
	duration := now.Sub(t.staticSince)

	return StaticResult{
		IsStatic:       true,
		Duration:       duration,
		ShouldComplete: duration >= t.timeout,
		LastChange:     t.lastChange,
	}
}

// Reset clears all state, for reuse across commands.
func (t *StaticTracker) Reset() {
	t.lastHash = ""
	t.lastChange = time.Time{}
	t.staticSince = time.Time{}
}
