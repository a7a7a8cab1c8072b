// Package age computes how long a slot has held its current binding.
package age

import "time"

// Since returns how long ago then was relative to now and whether timing data
// exists. Future timestamps clamp to zero so clock skew never yields a
// negative age.
func Since(then time.Time, now time.Time) (time.Duration, bool) {
	if then.IsZero() {
		return 0, false
	}
	elapsed := now.Sub(then)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true
}

// AtLeast reports whether then is at least d before now. Missing timestamps
// never qualify.
func AtLeast(then time.Time, now time.Time, d time.Duration) bool {
	elapsed, ok := Since(then, now)
	if !ok {
		return false
	}
	return elapsed >= d
}
