// Package util provides small shared helpers for the client.
package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDuration parses human-friendly duration strings used on flags.
// Supports bare-unit forms (30s, 5m, 1h) plus standard Go durations
// (e.g. 1h30m, 250ms).
func ParseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}

	unit := s[len(s)-1]
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		// Not a simple <int><unit> form, try standard Go duration.
		return time.ParseDuration(s)
	}

	switch unit {
	case 's':
		return time.Duration(value) * time.Second, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	default:
		return time.ParseDuration(s)
	}
}

// Secs converts a whole-second config value to a Duration.
func Secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Millis converts a millisecond config value to a Duration.
func Millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
