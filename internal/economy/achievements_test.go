package economy

import (
	"testing"
	"time"
)

func TestAchievements_Ladders(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l := Ledger{
		XP:       2600, // level 5
		Rep:      55,
		JoinDate: now.AddDate(0, 0, -200),
	}

	got := map[string]bool{}
	for _, a := range Achievements(l, now, false) {
		got[a.Name] = a.Unlocked
	}

	if !got["Chatter I"] || got["Chatter II"] {
		t.Fatalf("chatter ladder wrong: %v", got)
	}
	if !got["Leader II"] || got["Leader III"] {
		t.Fatalf("leader ladder wrong: %v", got)
	}
	if !got["Veteran II"] || got["Veteran III"] {
		t.Fatalf("veteran ladder wrong: %v", got)
	}
	if !got["First Steps"] {
		t.Fatalf("first steps should always unlock")
	}
	if got["Supporter"] {
		t.Fatalf("supporter should follow the membership flag")
	}
}

func TestAchievements_SupporterFlag(t *testing.T) {
	for _, a := range Achievements(Ledger{}, time.Now(), true) {
		if a.Name == "Supporter" && !a.Unlocked {
			t.Fatalf("supporter flag not honored")
		}
	}
}
