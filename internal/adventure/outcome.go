package adventure

import "guildhall.gg/internal/content"

// Offer is the result of starting an exploration: the locations the player
// may pick from.
type Offer struct {
	Locations []LocationRef
}

type LocationRef struct {
	ID   string
	Name string
}

type OutcomeKind int

const (
	OutcomeCombat OutcomeKind = iota
	OutcomeGathering
	OutcomeChest
	OutcomeNothing
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCombat:
		return "Combat"
	case OutcomeGathering:
		return "Gathering"
	case OutcomeChest:
		return "Chest"
	case OutcomeNothing:
		return "Nothing"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result of choosing a location. Combat leaves the
// session alive; the other kinds are terminal and already paid out.
type Outcome struct {
	Kind     OutcomeKind
	Location LocationRef

	// Combat.
	Enemy       *EnemyState
	PlayerHP    int
	PlayerMaxHP int
	Potions     int

	// Gathering.
	Resource content.Resource
	Amount   int

	// Gathering and chest payouts.
	Coins int
	XP    int
}

type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalVictory
	TerminalDefeat
	TerminalFled
)

func (t Terminal) String() string {
	switch t {
	case TerminalNone:
		return "None"
	case TerminalVictory:
		return "Victory"
	case TerminalDefeat:
		return "Defeat"
	case TerminalFled:
		return "Fled"
	default:
		return "Unknown"
	}
}

// TurnResult reports the facts of one combat turn.
type TurnResult struct {
	EnemyName string

	DamageDealt int
	DamageTaken int
	Healed      int
	NoPotions   bool // heal attempted with none left
	FleeFailed  bool

	PotionsLeft int
	PlayerHP    int
	PlayerMaxHP int
	EnemyHP     int
	EnemyMaxHP  int

	Terminal Terminal

	// Victory payout.
	Coins int
	XP    int
}
