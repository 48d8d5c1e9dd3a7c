// Package adventure is the in-memory session engine: exploration offers,
// encounter rolls, and turn-based combat, paying out to the economy ledger
// on terminal events.
package adventure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"guildhall.gg/internal/content"
	"guildhall.gg/internal/economy"
	"guildhall.gg/internal/persistence/auditlog"
	"guildhall.gg/internal/tuning"
)

// Policy violations, reported to the caller and never fatal.
var (
	ErrSessionActive   = errors.New("an adventure is already in progress")
	ErrNoSession       = errors.New("no active adventure")
	ErrInvalidLocation = errors.New("location was not offered")
	ErrInvalidAction   = errors.New("action not valid in this phase")
)

// QuotaError rejects an exploration attempt with the time left until the
// rolling window resets.
type QuotaError struct {
	Remaining time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("exploration quota exhausted, resets in %s", e.Remaining.Round(time.Minute))
}

type Action string

const (
	ActionAttack Action = "attack"
	ActionHeal   Action = "heal"
	ActionFlee   Action = "flee"
)

type Config struct {
	Store   economy.Store
	Catalog *content.Catalog
	Tuning  tuning.Tuning

	// Optional.
	Audit  *auditlog.Logger
	Roller Roller
	Now    func() time.Time
	// MaxIdle drops a session untouched for this long, checked lazily on the
	// player's next event. Zero keeps sessions forever.
	MaxIdle time.Duration
}

type Engine struct {
	store   economy.Store
	catalog *content.Catalog
	tune    tuning.Tuning
	audit   *auditlog.Logger
	now     func() time.Time
	maxIdle time.Duration

	// mu guards the registry and the roller, and serializes ledger
	// read-modify-write for payouts.
	mu       sync.Mutex
	rng      Roller
	sessions map[string]*Session
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("adventure: nil store")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("adventure: nil catalog")
	}
	e := &Engine{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		tune:     cfg.Tuning,
		audit:    cfg.Audit,
		now:      cfg.Now,
		maxIdle:  cfg.MaxIdle,
		rng:      cfg.Roller,
		sessions: map[string]*Session{},
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rng == nil {
		e.rng = NewRoller()
	}
	return e, nil
}

// StartExploration opens a session for the player and offers three distinct
// locations. The quota use is persisted before the session exists, so a
// failed save leaves no trace.
func (e *Engine) StartExploration(ctx context.Context, playerID string) (Offer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.expireIdleLocked(playerID, now)
	if _, active := e.sessions[playerID]; active {
		return Offer{}, ErrSessionActive
	}

	l, err := e.store.GetOrCreate(ctx, playerID)
	if err != nil {
		return Offer{}, fmt.Errorf("load ledger: %w", err)
	}
	window := time.Duration(e.tune.ExploreWindowMinutes) * time.Minute
	ok, remaining := l.ExploreAllow(now, window, e.tune.ExploreMax)
	if !ok {
		return Offer{}, &QuotaError{Remaining: remaining}
	}
	if err := e.store.Save(ctx, l); err != nil {
		return Offer{}, fmt.Errorf("save ledger: %w", err)
	}

	locs := e.catalog.SampleLocations(e.rng, content.OfferSize)
	s := &Session{
		PlayerID:  playerID,
		Phase:     PhaseChoosing,
		HP:        e.tune.PlayerHP,
		MaxHP:     e.tune.PlayerHP,
		Offered:   locs,
		LastEvent: now,
	}
	e.sessions[playerID] = s

	offer := Offer{Locations: make([]LocationRef, 0, len(locs))}
	for _, loc := range locs {
		offer.Locations = append(offer.Locations, LocationRef{ID: loc.ID, Name: loc.Name})
	}
	return offer, nil
}

// ChooseLocation rolls the encounter for one of the offered locations.
// Gathering, chest and nothing are terminal; combat hands the session to
// CombatAction.
func (e *Engine) ChooseLocation(ctx context.Context, playerID, locID string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.expireIdleLocked(playerID, now)
	s, active := e.sessions[playerID]
	if !active {
		return Outcome{}, ErrNoSession
	}
	if s.Phase != PhaseChoosing {
		return Outcome{}, ErrInvalidAction
	}
	loc := s.offered(locID)
	if loc == nil {
		return Outcome{}, ErrInvalidLocation
	}

	ref := LocationRef{ID: loc.ID, Name: loc.Name}
	roll := e.rng.Float64()
	switch {
	case roll < 0.40:
		arch, ok := e.catalog.EnemyFor(e.rng, loc.ID)
		if !ok {
			// Offered locations come from the catalog; this cannot miss.
			return Outcome{}, fmt.Errorf("no enemy table for %s", loc.ID)
		}
		s.Enemy = &EnemyState{
			Name:   arch.Name,
			HP:     arch.HP,
			MaxHP:  arch.HP,
			Damage: arch.Damage,
			XP:     arch.XP,
			Coin:   arch.Coin,
		}
		s.Heals = e.tune.Potions
		s.Phase = PhaseCombat
		s.LastEvent = now
		enemy := *s.Enemy
		return Outcome{
			Kind:        OutcomeCombat,
			Location:    ref,
			Enemy:       &enemy,
			PlayerHP:    s.HP,
			PlayerMaxHP: s.MaxHP,
			Potions:     s.Heals,
		}, nil

	case roll < 0.70:
		amount := e.rng.Intn(e.tune.GatherMax) + 1
		coins := amount
		xp := amount * e.tune.GatherXPPerUnit
		if err := e.payout(ctx, playerID, coins, xp, "gather", loc.Resource.Name); err != nil {
			return Outcome{}, err
		}
		delete(e.sessions, playerID)
		return Outcome{
			Kind:     OutcomeGathering,
			Location: ref,
			Resource: loc.Resource,
			Amount:   amount,
			Coins:    coins,
			XP:       xp,
		}, nil

	case roll < 0.90:
		span := e.tune.ChestCoinMax - e.tune.ChestCoinMin + 1
		coins := e.tune.ChestCoinMin + e.rng.Intn(span)
		xp := e.tune.ChestXP
		if err := e.payout(ctx, playerID, coins, xp, "chest", loc.Name); err != nil {
			return Outcome{}, err
		}
		delete(e.sessions, playerID)
		return Outcome{
			Kind:     OutcomeChest,
			Location: ref,
			Coins:    coins,
			XP:       xp,
		}, nil

	default:
		delete(e.sessions, playerID)
		return Outcome{Kind: OutcomeNothing, Location: ref}, nil
	}
}

// CombatAction resolves one combat turn. The enemy counter-attacks after
// every player action except a killing blow or a successful flee.
func (e *Engine) CombatAction(ctx context.Context, playerID string, action Action) (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.expireIdleLocked(playerID, now)
	s, active := e.sessions[playerID]
	if !active {
		return TurnResult{}, ErrNoSession
	}
	if s.Phase != PhaseCombat {
		return TurnResult{}, ErrInvalidAction
	}

	enemy := s.Enemy
	res := TurnResult{
		EnemyName:   enemy.Name,
		PlayerMaxHP: s.MaxHP,
		EnemyMaxHP:  enemy.MaxHP,
	}

	// Player move, staged on locals so a failed payout save leaves the
	// session exactly as it was.
	hp := s.HP
	enemyHP := enemy.HP
	heals := s.Heals

	switch action {
	case ActionAttack:
		span := e.tune.AttackMax - e.tune.AttackMin + 1
		dmg := e.tune.AttackMin + e.rng.Intn(span)
		res.DamageDealt = dmg
		enemyHP -= dmg
		if enemyHP <= 0 {
			if err := e.payout(ctx, playerID, enemy.Coin, enemy.XP, "victory", enemy.Name); err != nil {
				return TurnResult{}, err
			}
			delete(e.sessions, playerID)
			res.Terminal = TerminalVictory
			res.Coins = enemy.Coin
			res.XP = enemy.XP
			res.EnemyHP = 0
			res.PlayerHP = hp
			res.PotionsLeft = heals
			return res, nil
		}

	case ActionHeal:
		if heals > 0 {
			span := e.tune.HealMax - e.tune.HealMin + 1
			healed := e.tune.HealMin + e.rng.Intn(span)
			if hp+healed > s.MaxHP {
				healed = s.MaxHP - hp
			}
			hp += healed
			heals--
			res.Healed = healed
		} else {
			// Not an error: the turn is spent and the enemy still swings.
			res.NoPotions = true
		}

	case ActionFlee:
		if e.rng.Float64() > 0.5 {
			delete(e.sessions, playerID)
			res.Terminal = TerminalFled
			res.PlayerHP = hp
			res.EnemyHP = enemyHP
			res.PotionsLeft = heals
			return res, nil
		}
		res.FleeFailed = true

	default:
		return TurnResult{}, ErrInvalidAction
	}

	// Enemy counter-attack: reached by every non-terminal player move.
	taken := 1 + e.rng.Intn(enemy.Damage)
	res.DamageTaken = taken
	hp -= taken
	if hp <= 0 {
		delete(e.sessions, playerID)
		res.Terminal = TerminalDefeat
		res.PlayerHP = 0
		res.EnemyHP = enemyHP
		res.PotionsLeft = heals
		return res, nil
	}

	s.HP = hp
	s.Heals = heals
	enemy.HP = enemyHP
	s.LastEvent = now

	res.PlayerHP = hp
	res.EnemyHP = enemyHP
	res.PotionsLeft = heals
	return res, nil
}

// Active reports whether the player currently holds a live session.
func (e *Engine) Active(playerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[playerID]
	return ok
}

func (e *Engine) expireIdleLocked(playerID string, now time.Time) {
	if e.maxIdle <= 0 {
		return
	}
	if s, ok := e.sessions[playerID]; ok && now.Sub(s.LastEvent) > e.maxIdle {
		delete(e.sessions, playerID)
	}
}

func (e *Engine) payout(ctx context.Context, playerID string, coins, xp int, kind, detail string) error {
	l, err := e.store.GetOrCreate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l.Balance += coins
	l.XP += xp
	if err := e.store.Save(ctx, l); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	// Best effort: a full audit disk never blocks gameplay.
	_ = e.audit.Write(auditlog.Entry{
		At:       e.now(),
		PlayerID: playerID,
		Kind:     "payout",
		Coins:    coins,
		XP:       xp,
		Detail:   kind + ":" + detail,
	})
	return nil
}
