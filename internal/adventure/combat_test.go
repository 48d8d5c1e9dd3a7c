package adventure

import (
	"context"
	"errors"
	"testing"
)

// enterCombat starts an exploration and picks locID. Callers pin the first
// outcome float into the combat band.
func enterCombat(t *testing.T, e *Engine, locID string) Outcome {
	t.Helper()
	ctx := context.Background()
	if _, err := e.StartExploration(ctx, "p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := e.ChooseLocation(ctx, "p1", locID)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if out.Kind != OutcomeCombat {
		t.Fatalf("kind = %s, want Combat", out.Kind)
	}
	return out
}

func TestCombat_AttackMinimumRolls(t *testing.T) {
	// All integer rolls pinned to 0: attack deals 5, the counter deals 1.
	rng := &scriptRoller{ints: []int{0, 1, 2, 0}, floats: []float64{0.0}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	out := enterCombat(t, e, "glade")
	if out.Enemy.Name != "Grunt" || out.Potions != 3 || out.PlayerHP != 100 {
		t.Fatalf("combat entry: %+v", out)
	}

	res, err := e.CombatAction(context.Background(), "p1", ActionAttack)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.DamageDealt != 5 {
		t.Fatalf("damage dealt = %d, want 5", res.DamageDealt)
	}
	if res.DamageTaken != 1 {
		t.Fatalf("damage taken = %d, want 1", res.DamageTaken)
	}
	if res.PlayerHP != 99 || res.EnemyHP != 45 || res.Terminal != TerminalNone {
		t.Fatalf("turn: %+v", res)
	}
}

func TestCombat_AttackMaximumRolls(t *testing.T) {
	// Rolls pinned high: attack deals 14, the counter deals the enemy's full range.
	rng := &scriptRoller{ints: []int{0, 1, 2, 99}, floats: []float64{0.0}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	enterCombat(t, e, "cave") // Brute: 30 hp, damage range 8

	res, err := e.CombatAction(context.Background(), "p1", ActionAttack)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.DamageDealt != 14 {
		t.Fatalf("damage dealt = %d, want 14", res.DamageDealt)
	}
	if res.DamageTaken != 8 {
		t.Fatalf("damage taken = %d, want 8", res.DamageTaken)
	}
	if res.EnemyHP != 16 || res.PlayerHP != 92 {
		t.Fatalf("turn: %+v", res)
	}
}

func TestCombat_HealCapsAtMaxAndConsumesPotion(t *testing.T) {
	// Take one full-range hit (8), then heal a rolled 15 capped to 8.
	rng := &scriptRoller{ints: []int{0, 1, 2, 0, 0, 7, 10, 0}, floats: []float64{0.0}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	enterCombat(t, e, "cave")
	ctx := context.Background()

	if _, err := e.CombatAction(ctx, "p1", ActionAttack); err != nil {
		t.Fatalf("attack: %v", err)
	}
	res, err := e.CombatAction(ctx, "p1", ActionHeal)
	if err != nil {
		t.Fatalf("heal: %v", err)
	}
	if res.Healed != 8 {
		t.Fatalf("healed = %d, want 8 (capped)", res.Healed)
	}
	if res.PotionsLeft != 2 {
		t.Fatalf("potions = %d, want 2", res.PotionsLeft)
	}
	if res.DamageTaken != 1 {
		t.Fatalf("heal must not prevent the counter, taken = %d", res.DamageTaken)
	}
	if res.PlayerHP != 99 {
		t.Fatalf("hp = %d, want 99", res.PlayerHP)
	}
}

func TestCombat_HealWithoutPotionsIsNotAnError(t *testing.T) {
	rng := &scriptRoller{ints: []int{0, 1, 2, 0}, floats: []float64{0.0}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	enterCombat(t, e, "glade")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := e.CombatAction(ctx, "p1", ActionHeal)
		if err != nil {
			t.Fatalf("heal %d: %v", i+1, err)
		}
		if res.NoPotions {
			t.Fatalf("heal %d should still have potions", i+1)
		}
	}
	res, err := e.CombatAction(ctx, "p1", ActionHeal)
	if err != nil {
		t.Fatalf("dry heal: %v", err)
	}
	if !res.NoPotions || res.Healed != 0 || res.PotionsLeft != 0 {
		t.Fatalf("dry heal: %+v", res)
	}
	if res.DamageTaken == 0 {
		t.Fatalf("dry heal still draws the counter")
	}
	if res.Terminal != TerminalNone {
		t.Fatalf("dry heal is not terminal: %+v", res)
	}
}

func TestCombat_FleeSuccessSkipsCounter(t *testing.T) {
	store := newMemStore()
	rng := &scriptRoller{ints: []int{0, 1, 2, 0}, floats: []float64{0.0, 0.9}}
	e := newTestEngine(t, store, rng, nil)
	enterCombat(t, e, "glade")
	ctx := context.Background()

	res, err := e.CombatAction(ctx, "p1", ActionFlee)
	if err != nil {
		t.Fatalf("flee: %v", err)
	}
	if res.Terminal != TerminalFled {
		t.Fatalf("terminal = %s, want Fled", res.Terminal)
	}
	if res.DamageTaken != 0 {
		t.Fatalf("successful flee must skip the counter")
	}
	if e.Active("p1") {
		t.Fatalf("fled session must be gone")
	}
	l, _ := store.Get(ctx, "p1")
	if l.Balance != 0 || l.XP != 0 {
		t.Fatalf("flee pays nothing: %+v", l)
	}
}

func TestCombat_FleeFailureDrawsCounter(t *testing.T) {
	rng := &scriptRoller{ints: []int{0, 1, 2, 0}, floats: []float64{0.0, 0.3}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	enterCombat(t, e, "glade")

	res, err := e.CombatAction(context.Background(), "p1", ActionFlee)
	if err != nil {
		t.Fatalf("flee: %v", err)
	}
	if !res.FleeFailed || res.Terminal != TerminalNone {
		t.Fatalf("failed flee: %+v", res)
	}
	if res.DamageTaken == 0 {
		t.Fatalf("failed flee draws the counter")
	}
	if !e.Active("p1") {
		t.Fatalf("failed flee keeps the session")
	}
}

func TestCombat_DefeatPaysNothing(t *testing.T) {
	store := newMemStore()
	// Lurker's counter range is 200; a 150 roll is lethal from full health.
	rng := &scriptRoller{ints: []int{0, 1, 2, 0, 0, 150}, floats: []float64{0.0}}
	e := newTestEngine(t, store, rng, nil)
	enterCombat(t, e, "marsh")
	ctx := context.Background()

	res, err := e.CombatAction(ctx, "p1", ActionAttack)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.Terminal != TerminalDefeat || res.PlayerHP != 0 {
		t.Fatalf("defeat: %+v", res)
	}
	if e.Active("p1") {
		t.Fatalf("defeated session must be gone")
	}
	l, _ := store.Get(ctx, "p1")
	if l.Balance != 0 || l.XP != 0 {
		t.Fatalf("defeat pays nothing: %+v", l)
	}
}

func TestCombat_VictoryPaysOnceAndIsAbsorbing(t *testing.T) {
	store := newMemStore()
	// Wyrm has 5 hp; the minimum attack (5) is a killing blow.
	rng := &scriptRoller{ints: []int{3, 1, 2, 0}, floats: []float64{0.0}}
	e := newTestEngine(t, store, rng, nil)
	enterCombat(t, e, "peak")
	ctx := context.Background()

	res, err := e.CombatAction(ctx, "p1", ActionAttack)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.Terminal != TerminalVictory {
		t.Fatalf("terminal = %s, want Victory", res.Terminal)
	}
	if res.DamageTaken != 0 {
		t.Fatalf("killing blow skips the counter")
	}
	if res.Coins != 40 || res.XP != 60 {
		t.Fatalf("payout: %+v", res)
	}

	l, _ := store.Get(ctx, "p1")
	if l.Balance != 40 || l.XP != 60 {
		t.Fatalf("ledger after victory: %+v", l)
	}

	// Terminated is absorbing: nothing further is accepted, nothing pays again.
	if _, err := e.CombatAction(ctx, "p1", ActionAttack); !errors.Is(err, ErrNoSession) {
		t.Fatalf("post-victory combat: want ErrNoSession, got %v", err)
	}
	if _, err := e.ChooseLocation(ctx, "p1", "peak"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("post-victory choose: want ErrNoSession, got %v", err)
	}
	l, _ = store.Get(ctx, "p1")
	if l.Balance != 40 || l.XP != 60 {
		t.Fatalf("reward applied more than once: %+v", l)
	}
}

func TestCombat_PhaseGuards(t *testing.T) {
	rng := &scriptRoller{ints: []int{0, 1, 2, 0}, floats: []float64{0.0}}
	e := newTestEngine(t, newMemStore(), rng, nil)
	ctx := context.Background()

	if _, err := e.StartExploration(ctx, "p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Combat moves are not valid while choosing.
	if _, err := e.CombatAction(ctx, "p1", ActionAttack); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("combat while choosing: want ErrInvalidAction, got %v", err)
	}
	if _, err := e.ChooseLocation(ctx, "p1", "glade"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	// Nor is re-choosing once combat has begun.
	if _, err := e.ChooseLocation(ctx, "p1", "cave"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("choose while fighting: want ErrInvalidAction, got %v", err)
	}
	if _, err := e.CombatAction(ctx, "p1", "dance"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("unknown action: want ErrInvalidAction, got %v", err)
	}
}

func TestEndToEnd_FreshPlayerToVictory(t *testing.T) {
	store := newMemStore()
	// Outcome roll 0.35 lands in the combat band; every later roll is maximal.
	rng := &scriptRoller{ints: []int{0, 1, 2, 99}, floats: []float64{0.35, 0.0}}
	e := newTestEngine(t, store, rng, nil)
	ctx := context.Background()

	offer, err := e.StartExploration(ctx, "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(offer.Locations) != 3 {
		t.Fatalf("offered %d locations", len(offer.Locations))
	}

	out, err := e.ChooseLocation(ctx, "p1", offer.Locations[0].ID)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if out.Kind != OutcomeCombat {
		t.Fatalf("roll 0.35 must open combat, got %s", out.Kind)
	}
	if out.Enemy.Name != "Grunt" {
		t.Fatalf("location-appropriate enemy: %+v", out.Enemy)
	}

	var last TurnResult
	for i := 0; i < 20; i++ {
		last, err = e.CombatAction(ctx, "p1", ActionAttack)
		if err != nil {
			t.Fatalf("attack %d: %v", i+1, err)
		}
		if last.Terminal != TerminalNone {
			break
		}
	}
	if last.Terminal != TerminalVictory {
		t.Fatalf("terminal = %s, want Victory", last.Terminal)
	}

	l, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if l.Balance != 10 || l.XP != 20 {
		t.Fatalf("ledger = %+v, want the Grunt reward exactly once", l)
	}
	if e.Active("p1") {
		t.Fatalf("no session may survive the victory")
	}
}
