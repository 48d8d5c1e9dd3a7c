// Package economy holds the per-player ledger and the pure rules that read
// and gate it: cooldown windows, level/tier progression, achievements.
package economy

import "time"

// Ledger is the durable per-player record. Callers read-modify-write the
// whole record through a Store; there are no partial-field updates.
type Ledger struct {
	PlayerID string

	Balance int // never negative
	XP      int
	Rep     int // may go negative

	LastDaily time.Time
	LastRep   time.Time
	JoinDate  time.Time

	// Rolling exploration quota, reset lazily on the next attempt.
	ExploreCount     int
	LastExploreReset time.Time

	TempGrants []TempGrant
}

// TempGrant is a time-limited external privilege (e.g. a membership role).
type TempGrant struct {
	GrantID   string
	ExpiresAt time.Time
}

// ExploreAllow applies the rolling-window quota for explorations. The window
// restarts lazily once it has fully elapsed; on success the use is counted.
// On refusal it reports how long until the window resets.
func (l *Ledger) ExploreAllow(now time.Time, window time.Duration, max int) (ok bool, remaining time.Duration) {
	if window <= 0 || max <= 0 {
		return true, 0
	}
	if now.Sub(l.LastExploreReset) > window {
		l.ExploreCount = 0
		l.LastExploreReset = now
	}
	if l.ExploreCount >= max {
		return false, l.LastExploreReset.Add(window).Sub(now)
	}
	l.ExploreCount++
	return true, 0
}

// PruneGrants removes expired grants and reports the ones removed.
func (l *Ledger) PruneGrants(now time.Time) []TempGrant {
	var expired []TempGrant
	kept := l.TempGrants[:0]
	for _, g := range l.TempGrants {
		if now.After(g.ExpiresAt) {
			expired = append(expired, g)
			continue
		}
		kept = append(kept, g)
	}
	l.TempGrants = kept
	return expired
}
