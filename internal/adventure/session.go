package adventure

import (
	"time"

	"guildhall.gg/internal/content"
)

type Phase int

const (
	// PhaseChoosing: the player has been offered locations and owes a pick.
	PhaseChoosing Phase = iota
	// PhaseCombat: an enemy is engaged; attack/heal/flee are the moves.
	PhaseCombat
)

// Session is the transient adventure state for one player. It lives only in
// the engine's registry, is never persisted, and is discarded the moment a
// terminal outcome is reached.
type Session struct {
	PlayerID string
	Phase    Phase

	HP    int
	MaxHP int

	Offered []*content.Location

	Enemy *EnemyState
	Heals int

	LastEvent time.Time
}

// EnemyState is the live copy of a drawn archetype.
type EnemyState struct {
	Name   string
	HP     int
	MaxHP  int
	Damage int // counter-attack rolls 1..Damage
	XP     int
	Coin   int
}

func (s *Session) offered(locID string) *content.Location {
	for _, loc := range s.Offered {
		if loc.ID == locID {
			return loc
		}
	}
	return nil
}
