package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guildhall.gg/internal/adventure"
	"guildhall.gg/internal/protocol"
)

// Button custom-id namespaces. Locations ride in the suffix.
const (
	exploreIDPrefix = "explore_"
	combatAttackID  = "combat_attack"
	combatHealID    = "combat_heal"
	combatRunID     = "combat_run"
)

func (h *Handler) cmdExplore(ctx context.Context, ev Event, _ []string) (*Reply, error) {
	offer, err := h.engine.StartExploration(ctx, ev.PlayerID)
	if err != nil {
		var qe *adventure.QuotaError
		switch {
		case errors.As(err, &qe):
			mins := int(qe.Remaining.Minutes()) + 1
			return &Reply{
				Content:   fmt.Sprintf("You are out of explorations. Try again in %d minutes.", mins),
				Code:      protocol.ErrQuotaExceeded,
				Ephemeral: true,
			}, nil
		case errors.Is(err, adventure.ErrSessionActive):
			return &Reply{
				Content:   "You already have an adventure in progress. Finish it first.",
				Code:      protocol.ErrSessionActive,
				Ephemeral: true,
			}, nil
		}
		return nil, err
	}

	comps := make([]protocol.Component, 0, len(offer.Locations))
	for _, loc := range offer.Locations {
		comps = append(comps, protocol.Component{
			CustomID: exploreIDPrefix + loc.ID,
			Label:    loc.Name,
			Style:    "primary",
		})
	}
	return &Reply{
		Content:    "You set out to explore. Where do you go?",
		Components: comps,
	}, nil
}

// HandleInteraction resolves a button press. Unknown custom ids and
// out-of-phase presses come back as coded replies, never errors.
func (h *Handler) HandleInteraction(ctx context.Context, playerID, customID string) (*Reply, error) {
	switch {
	case strings.HasPrefix(customID, exploreIDPrefix):
		return h.chooseLocation(ctx, playerID, strings.TrimPrefix(customID, exploreIDPrefix))
	case customID == combatAttackID:
		return h.combatTurn(ctx, playerID, adventure.ActionAttack)
	case customID == combatHealID:
		return h.combatTurn(ctx, playerID, adventure.ActionHeal)
	case customID == combatRunID:
		return h.combatTurn(ctx, playerID, adventure.ActionFlee)
	}
	return &Reply{Content: "That button is not recognized.", Code: protocol.ErrBadRequest, Ephemeral: true}, nil
}

func (h *Handler) chooseLocation(ctx context.Context, playerID, locID string) (*Reply, error) {
	out, err := h.engine.ChooseLocation(ctx, playerID, locID)
	if err != nil {
		return adventureRefusal(err)
	}

	switch out.Kind {
	case adventure.OutcomeCombat:
		body := fmt.Sprintf(
			"A wild %s blocks your path in %s!\n%s",
			out.Enemy.Name, out.Location.Name,
			statusLine(out.PlayerHP, out.PlayerMaxHP, out.Enemy.Name, out.Enemy.HP, out.Enemy.MaxHP),
		)
		return &Reply{
			Content:    body,
			Components: combatButtons(out.Potions),
			Update:     true,
		}, nil

	case adventure.OutcomeGathering:
		return &Reply{
			Content: fmt.Sprintf(
				"You gathered %d %s in %s. +%d coins, +%d XP.",
				out.Amount, out.Resource.Name, out.Location.Name, out.Coins, out.XP,
			),
			Update: true,
		}, nil

	case adventure.OutcomeChest:
		return &Reply{
			Content: fmt.Sprintf(
				"You found a hidden chest in %s! +%d coins, +%d XP.",
				out.Location.Name, out.Coins, out.XP,
			),
			Update: true,
		}, nil

	default:
		return &Reply{
			Content: fmt.Sprintf("You wander %s but find nothing of interest.", out.Location.Name),
			Update:  true,
		}, nil
	}
}

func (h *Handler) combatTurn(ctx context.Context, playerID string, action adventure.Action) (*Reply, error) {
	res, err := h.engine.CombatAction(ctx, playerID, action)
	if err != nil {
		return adventureRefusal(err)
	}

	var b strings.Builder
	switch {
	case res.DamageDealt > 0:
		fmt.Fprintf(&b, "You hit the %s for %d damage.", res.EnemyName, res.DamageDealt)
	case res.Healed > 0:
		fmt.Fprintf(&b, "You drink a potion and recover %d HP.", res.Healed)
	case res.NoPotions:
		b.WriteString("You fumble for a potion but your pack is empty.")
	case action == adventure.ActionHeal:
		b.WriteString("You drink a potion, but you are already at full health.")
	case res.FleeFailed:
		fmt.Fprintf(&b, "You try to run, but the %s cuts you off!", res.EnemyName)
	case res.Terminal == adventure.TerminalFled:
		b.WriteString("You slip away and escape!")
	}

	switch res.Terminal {
	case adventure.TerminalVictory:
		fmt.Fprintf(&b, "\nThe %s falls! +%d coins, +%d XP.", res.EnemyName, res.Coins, res.XP)
		return &Reply{Content: b.String(), Update: true}, nil
	case adventure.TerminalDefeat:
		fmt.Fprintf(&b, "\nThe %s strikes back for %d. You collapse and wake up back home, empty-handed.",
			res.EnemyName, res.DamageTaken)
		return &Reply{Content: b.String(), Update: true}, nil
	case adventure.TerminalFled:
		return &Reply{Content: b.String(), Update: true}, nil
	}

	fmt.Fprintf(&b, "\nThe %s strikes back for %d.\n%s",
		res.EnemyName, res.DamageTaken,
		statusLine(res.PlayerHP, res.PlayerMaxHP, res.EnemyName, res.EnemyHP, res.EnemyMaxHP))
	if res.PotionsLeft >= 0 {
		fmt.Fprintf(&b, " | Potions: %d", res.PotionsLeft)
	}
	return &Reply{
		Content:    b.String(),
		Components: combatButtons(res.PotionsLeft),
		Update:     true,
	}, nil
}

// adventureRefusal maps the engine's policy errors to coded replies and lets
// everything else surface as a real error.
func adventureRefusal(err error) (*Reply, error) {
	switch {
	case errors.Is(err, adventure.ErrNoSession):
		return &Reply{Content: "You have no adventure in progress.", Code: protocol.ErrNoSession, Ephemeral: true}, nil
	case errors.Is(err, adventure.ErrInvalidLocation):
		return &Reply{Content: "That location was not on offer.", Code: protocol.ErrBadRequest, Ephemeral: true}, nil
	case errors.Is(err, adventure.ErrInvalidAction):
		return &Reply{Content: "You cannot do that right now.", Code: protocol.ErrBadRequest, Ephemeral: true}, nil
	}
	return nil, err
}

func combatButtons(potions int) []protocol.Component {
	return []protocol.Component{
		{CustomID: combatAttackID, Label: "Attack", Style: "danger"},
		{CustomID: combatHealID, Label: "Heal", Style: "success", Disabled: potions <= 0},
		{CustomID: combatRunID, Label: "Run", Style: "secondary"},
	}
}

func statusLine(hp, maxHP int, enemyName string, enemyHP, enemyMaxHP int) string {
	return fmt.Sprintf("You: %d/%d HP | %s: %d/%d HP", hp, maxHP, enemyName, enemyHP, enemyMaxHP)
}
