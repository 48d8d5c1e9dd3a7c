package economy

import (
	"fmt"
	"time"
)

// Achievement is one unlockable badge shown on the external profile page.
type Achievement struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "chatter","leader","veteran","other"
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type chatterRung struct {
	name  string
	level int
}

type leaderRung struct {
	name string
	rep  int
}

type veteranRung struct {
	name string
	days int
}

var chatterLadder = []chatterRung{
	{"Chatter I", 5},
	{"Chatter II", 10},
	{"Chatter III", 20},
	{"Chatter IV", 50},
	{"Chatter V", 100},
}

var leaderLadder = []leaderRung{
	{"Leader I", 10},
	{"Leader II", 50},
	{"Leader III", 100},
	{"Leader IV", 500},
}

var veteranLadder = []veteranRung{
	{"Veteran I", 30},
	{"Veteran II", 180},
	{"Veteran III", 365},
	{"Veteran IV", 730},
}

// Achievements evaluates every ladder against the ledger. supporter comes
// from the external membership provider; the core only reads the boolean.
func Achievements(l Ledger, now time.Time, supporter bool) []Achievement {
	level := Level(l.XP)
	days := 0
	if !l.JoinDate.IsZero() {
		days = int(now.Sub(l.JoinDate).Hours() / 24)
	}

	out := make([]Achievement, 0, len(chatterLadder)+len(leaderLadder)+len(veteranLadder)+2)
	for _, r := range chatterLadder {
		out = append(out, Achievement{
			Name:        r.name,
			Kind:        "chatter",
			Description: describeLevel(r.level),
			Unlocked:    level >= r.level,
		})
	}
	for _, r := range leaderLadder {
		out = append(out, Achievement{
			Name:        r.name,
			Kind:        "leader",
			Description: describeRep(r.rep),
			Unlocked:    l.Rep >= r.rep,
		})
	}
	for _, r := range veteranLadder {
		out = append(out, Achievement{
			Name:        r.name,
			Kind:        "veteran",
			Description: describeDays(r.days),
			Unlocked:    days >= r.days,
		})
	}
	out = append(out,
		Achievement{
			Name:        "First Steps",
			Kind:        "other",
			Description: "Join the community",
			Unlocked:    true,
		},
		Achievement{
			Name:        "Supporter",
			Kind:        "other",
			Description: "Support the server",
			Unlocked:    supporter,
		},
	)
	return out
}

func describeLevel(n int) string { return fmt.Sprintf("Reach level %d", n) }
func describeRep(n int) string   { return fmt.Sprintf("Earn %d reputation", n) }
func describeDays(n int) string  { return fmt.Sprintf("Stay for %d days", n) }
