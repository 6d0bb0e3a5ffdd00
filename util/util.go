// Package util holds small helpers shared by the simulation packages.
package util

import "time"

// SkipThrottler rate limits repetitive work such as progress logging.
type SkipThrottler struct {
	d    time.Duration
	last time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	return &SkipThrottler{d: d}
}

// Ok reports whether at least d has passed since the last accepted call.
// The first call is always accepted.
func (t *SkipThrottler) Ok() bool {
	now := time.Now()
	if now.Sub(t.last) < t.d {
		return false
	}
	t.last = now
	return true
}
