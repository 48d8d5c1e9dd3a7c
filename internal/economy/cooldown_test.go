package economy

import (
	"testing"
	"time"
)

func TestRemaining_NeverUsedIsAllowed(t *testing.T) {
	now := time.Now()
	if rem := Remaining(time.Time{}, 24*time.Hour, now); rem != 0 {
		t.Fatalf("zero last should be allowed, got %v", rem)
	}
}

func TestRemaining_InsideAndOutsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Hour)

	if got := Remaining(last, 24*time.Hour, now); got != 14*time.Hour {
		t.Fatalf("remaining = %v, want 14h", got)
	}
	if got := Remaining(last, 10*time.Hour, now); got != 0 {
		t.Fatalf("elapsed window should report 0, got %v", got)
	}
	if got := Remaining(last, 5*time.Hour, now); got != 0 {
		t.Fatalf("expired window should report 0, got %v", got)
	}
}

func TestExploreAllow_QuotaAndLazyReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := Ledger{PlayerID: "p1", LastExploreReset: now}

	for i := 0; i < 3; i++ {
		ok, _ := l.ExploreAllow(now, time.Hour, 3)
		if !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	ok, rem := l.ExploreAllow(now.Add(30*time.Minute), time.Hour, 3)
	if ok {
		t.Fatalf("4th attempt inside window should be refused")
	}
	if rem != 30*time.Minute {
		t.Fatalf("remaining = %v, want 30m", rem)
	}

	// Once the window fully elapses the counter restarts at 1.
	ok, _ = l.ExploreAllow(now.Add(61*time.Minute), time.Hour, 3)
	if !ok {
		t.Fatalf("attempt after window should pass")
	}
	if l.ExploreCount != 1 {
		t.Fatalf("counter after reset = %d, want 1", l.ExploreCount)
	}
}

func TestPruneGrants(t *testing.T) {
	now := time.Now()
	l := Ledger{TempGrants: []TempGrant{
		{GrantID: "vip", ExpiresAt: now.Add(-time.Minute)},
		{GrantID: "supporter", ExpiresAt: now.Add(time.Hour)},
	}}
	expired := l.PruneGrants(now)
	if len(expired) != 1 || expired[0].GrantID != "vip" {
		t.Fatalf("expired = %+v", expired)
	}
	if len(l.TempGrants) != 1 || l.TempGrants[0].GrantID != "supporter" {
		t.Fatalf("kept = %+v", l.TempGrants)
	}
}
