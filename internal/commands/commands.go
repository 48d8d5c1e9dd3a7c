// Package commands turns chat messages and button interactions into economy
// and adventure operations, and renders the replies.
package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"guildhall.gg/internal/adventure"
	"guildhall.gg/internal/economy"
	"guildhall.gg/internal/persistence/auditlog"
	"guildhall.gg/internal/protocol"
	"guildhall.gg/internal/tuning"
)

const prefix = "!"

// Reply is what a handler wants said back. A nil reply means silence.
type Reply struct {
	Content    string
	Components []protocol.Component
	// Update edits the originating message in place (button flows).
	Update    bool
	Ephemeral bool
	Code      string
}

// Event is one incoming chat message.
type Event struct {
	PlayerID  string
	ChannelID string
	Content   string
	Mentions  []string
	// Bot marks messages from bot connections; they earn nothing and
	// trigger nothing.
	Bot bool
}

type Handler struct {
	store   economy.Store
	engine  *adventure.Engine
	tune    tuning.Tuning
	audit   *auditlog.Logger
	now     func() time.Time
	history *channelHistory

	// rngMu guards rng: one handler serves every connection concurrently
	// and math/rand sources are not safe for parallel use.
	rngMu sync.Mutex
	rng   adventure.Roller

	dispatch map[string]func(ctx context.Context, ev Event, args []string) (*Reply, error)
}

type Config struct {
	Store  economy.Store
	Engine *adventure.Engine
	Tuning tuning.Tuning

	// Optional.
	Audit  *auditlog.Logger
	Roller adventure.Roller
	Now    func() time.Time
}

func New(cfg Config) *Handler {
	h := &Handler{
		store:   cfg.Store,
		engine:  cfg.Engine,
		tune:    cfg.Tuning,
		audit:   cfg.Audit,
		rng:     cfg.Roller,
		now:     cfg.Now,
		history: newChannelHistory(cfg.Tuning.ScanMaxMessages),
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.rng == nil {
		h.rng = adventure.NewRoller()
	}
	h.dispatch = map[string]func(ctx context.Context, ev Event, args []string) (*Reply, error){
		"balance":     h.cmdBalance,
		"bal":         h.cmdBalance,
		"daily":       h.cmdDaily,
		"rep":         h.cmdRep,
		"unrep":       h.cmdRep,
		"profile":     h.cmdProfile,
		"leaderboard": h.cmdTop,
		"top":         h.cmdTop,
		"bet":         h.cmdBet,
		"scanxp":      h.cmdScan,
		"explore":     h.cmdExplore,
		"adventure":   h.cmdExplore,
	}
	return h
}

// HandleMessage credits the chat drip, then dispatches a command if the line
// carries one. Policy refusals come back as replies with a code, not errors.
func (h *Handler) HandleMessage(ctx context.Context, ev Event) (*Reply, error) {
	if ev.Bot {
		return nil, nil
	}
	h.history.Record(ev.ChannelID, ev.PlayerID)

	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.XP += h.tune.MessageXP
	l.Balance += h.tune.MessageCoin
	if err := h.store.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	_ = h.audit.Write(auditlog.Entry{
		At: h.now(), PlayerID: ev.PlayerID, Kind: "drip",
		Coins: h.tune.MessageCoin, XP: h.tune.MessageXP,
	})

	if !strings.HasPrefix(ev.Content, prefix) {
		return nil, nil
	}
	args := strings.Fields(strings.TrimPrefix(ev.Content, prefix))
	if len(args) == 0 {
		return nil, nil
	}
	cmd := strings.ToLower(args[0])
	fn, ok := h.dispatch[cmd]
	if !ok {
		return nil, nil
	}
	return fn(ctx, ev, args[1:])
}

func (h *Handler) cmdBalance(ctx context.Context, ev Event, _ []string) (*Reply, error) {
	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, err
	}
	return &Reply{Content: fmt.Sprintf("You have %d coins.", l.Balance)}, nil
}

func (h *Handler) cmdDaily(ctx context.Context, ev Event, _ []string) (*Reply, error) {
	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, err
	}
	now := h.now()
	window := time.Duration(h.tune.DailyCooldownHours) * time.Hour
	if rem := economy.Remaining(l.LastDaily, window, now); rem > 0 {
		hours := int(rem.Hours()) + 1
		return &Reply{
			Content: fmt.Sprintf("Your daily reward is still cooling down: %d hours left.", hours),
			Code:    protocol.ErrCooldown,
		}, nil
	}
	l.Balance += h.tune.DailyAmount
	l.LastDaily = now
	if err := h.store.Save(ctx, l); err != nil {
		return nil, err
	}
	_ = h.audit.Write(auditlog.Entry{At: now, PlayerID: ev.PlayerID, Kind: "daily", Coins: h.tune.DailyAmount})
	return &Reply{Content: fmt.Sprintf("You claimed your daily %d coins.", h.tune.DailyAmount)}, nil
}

func (h *Handler) cmdRep(ctx context.Context, ev Event, _ []string) (*Reply, error) {
	if len(ev.Mentions) == 0 {
		return &Reply{Content: "Mention the player you want to vote for.", Code: protocol.ErrBadRequest}, nil
	}
	target := ev.Mentions[0]
	if target == ev.PlayerID {
		return &Reply{Content: "You cannot vote for yourself.", Code: protocol.ErrInvalidTarget}, nil
	}

	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, err
	}
	now := h.now()
	window := time.Duration(h.tune.RepCooldownHours) * time.Hour
	if rem := economy.Remaining(l.LastRep, window, now); rem > 0 {
		hours := int(rem.Hours()) + 1
		return &Reply{
			Content: fmt.Sprintf("You can vote again in %d hours.", hours),
			Code:    protocol.ErrCooldown,
		}, nil
	}

	tl, err := h.store.GetOrCreate(ctx, target)
	if err != nil {
		return nil, err
	}
	delta := 1
	verb := "gave +1 rep to"
	if strings.ToLower(strings.TrimPrefix(firstField(ev.Content), prefix)) == "unrep" {
		delta = -1
		verb = "gave -1 rep to"
	}
	tl.Rep += delta
	l.LastRep = now
	if err := h.store.Save(ctx, tl); err != nil {
		return nil, err
	}
	if err := h.store.Save(ctx, l); err != nil {
		return nil, err
	}
	_ = h.audit.Write(auditlog.Entry{At: now, PlayerID: target, Kind: "rep", Rep: delta, Detail: "from:" + ev.PlayerID})
	return &Reply{Content: fmt.Sprintf("You %s %s.", verb, target)}, nil
}

func (h *Handler) cmdProfile(ctx context.Context, ev Event, _ []string) (*Reply, error) {
	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, err
	}
	return &Reply{Content: fmt.Sprintf(
		"Tier: %s | Level: %d | Coins: %d | Rep: %d | XP: %d",
		economy.TierFor(l.XP, l.Rep), economy.Level(l.XP), l.Balance, l.Rep, l.XP,
	)}, nil
}

func (h *Handler) cmdTop(ctx context.Context, _ Event, _ []string) (*Reply, error) {
	top, err := h.store.Top(ctx, 5)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("Top players by XP:")
	for i, l := range top {
		fmt.Fprintf(&b, "\n%d. %s — %d XP | %d coins", i+1, l.PlayerID, l.XP, l.Balance)
	}
	return &Reply{Content: b.String()}, nil
}

func (h *Handler) cmdBet(ctx context.Context, ev Event, args []string) (*Reply, error) {
	usage := &Reply{Content: "Usage: !bet <amount> <heads|tails>", Code: protocol.ErrBadRequest}
	if len(args) < 2 {
		return usage, nil
	}
	var amount int
	if _, err := fmt.Sscanf(args[0], "%d", &amount); err != nil || amount <= 0 {
		return usage, nil
	}
	choice := strings.ToLower(args[1])
	if choice != "heads" && choice != "tails" {
		return usage, nil
	}

	l, err := h.store.GetOrCreate(ctx, ev.PlayerID)
	if err != nil {
		return nil, err
	}
	if amount > l.Balance {
		return &Reply{Content: "You do not have that many coins.", Code: protocol.ErrNoFunds}, nil
	}

	h.rngMu.Lock()
	heads := h.rng.Float64() < 0.5
	h.rngMu.Unlock()
	result := "tails"
	if heads {
		result = "heads"
	}
	won := (choice == "heads") == heads
	if won {
		l.Balance += amount
	} else {
		l.Balance -= amount
	}
	if err := h.store.Save(ctx, l); err != nil {
		return nil, err
	}
	delta := amount
	if !won {
		delta = -amount
	}
	_ = h.audit.Write(auditlog.Entry{At: h.now(), PlayerID: ev.PlayerID, Kind: "bet", Coins: delta, Detail: result})

	if won {
		return &Reply{Content: fmt.Sprintf("It came up %s. You won %d coins!", result, amount)}, nil
	}
	return &Reply{Content: fmt.Sprintf("It came up %s. You lost %d coins.", result, amount)}, nil
}

func (h *Handler) cmdScan(ctx context.Context, ev Event, args []string) (*Reply, error) {
	ch, err := h.store.GetOrCreateChannel(ctx, ev.ChannelID)
	if err != nil {
		return nil, err
	}
	now := h.now()
	window := time.Duration(h.tune.ScanCooldownDays) * 24 * time.Hour
	if rem := economy.Remaining(ch.LastScan, window, now); rem > 0 {
		days := int(rem.Hours()/24) + 1
		return &Reply{
			Content: fmt.Sprintf("This channel was scanned recently. Try again in %d days.", days),
			Code:    protocol.ErrCooldown,
		}, nil
	}

	limit := 50
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &limit); err != nil || limit <= 0 {
			limit = 50
		}
	}
	if limit > h.tune.ScanMaxMessages {
		limit = h.tune.ScanMaxMessages
	}

	authors := h.history.Recent(ev.ChannelID, limit)
	credited := map[string]bool{}
	for _, id := range authors {
		l, err := h.store.GetOrCreate(ctx, id)
		if err != nil {
			return nil, err
		}
		// Scans back-fill xp only, no coins.
		l.XP += h.tune.MessageXP
		if err := h.store.Save(ctx, l); err != nil {
			return nil, err
		}
		credited[id] = true
	}

	ch.LastScan = now
	if err := h.store.SaveChannel(ctx, ch); err != nil {
		return nil, err
	}
	_ = h.audit.Write(auditlog.Entry{At: now, PlayerID: ev.PlayerID, Kind: "scan", Detail: ev.ChannelID})
	return &Reply{Content: fmt.Sprintf(
		"Scan complete: %d messages processed, %d players credited.", len(authors), len(credited),
	)}, nil
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
