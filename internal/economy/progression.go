package economy

import "math"

// Level derives a chat level from xp: floor(sqrt(xp/100)).
func Level(xp int) int {
	if xp <= 0 {
		return 0
	}
	return int(math.Sqrt(float64(xp) / 100))
}

type Tier int

const (
	TierNovice Tier = iota
	TierAdventurer
	TierMaster
	TierLegendary
)

func (t Tier) String() string {
	switch t {
	case TierLegendary:
		return "Legendary"
	case TierMaster:
		return "Master"
	case TierAdventurer:
		return "Adventurer"
	default:
		return "Novice"
	}
}

// TierFor walks the threshold ladder highest-first; the first rung whose
// gates both pass wins.
func TierFor(xp, rep int) Tier {
	switch {
	case xp > 1000 && rep > 50:
		return TierLegendary
	case xp > 500 && rep > 20:
		return TierMaster
	case xp > 100:
		return TierAdventurer
	default:
		return TierNovice
	}
}
