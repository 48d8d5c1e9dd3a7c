package economy

import "time"

// Remaining reports how much of a cooldown window is left after last.
// A zero last means the action was never used and is always allowed.
func Remaining(last time.Time, window time.Duration, now time.Time) time.Duration {
	if last.IsZero() || window <= 0 {
		return 0
	}
	rem := last.Add(window).Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}
