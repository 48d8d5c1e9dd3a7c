package economy

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ChannelScan is the per-channel record gating the xp history scan.
type ChannelScan struct {
	ChannelID string
	LastScan  time.Time
}

// Store persists ledgers and channel scan records. Implementations must make
// GetOrCreate idempotent; callers read-modify-write whole records, so two
// concurrent writers for the same player can lose an update (tolerated on
// command paths, serialized by the adventure engine for payouts).
type Store interface {
	GetOrCreate(ctx context.Context, playerID string) (Ledger, error)
	Get(ctx context.Context, playerID string) (Ledger, error)
	Save(ctx context.Context, l Ledger) error

	// Top returns the n highest-xp ledgers, descending.
	Top(ctx context.Context, n int) ([]Ledger, error)
	// WithGrants returns every ledger holding at least one temp grant.
	WithGrants(ctx context.Context) ([]Ledger, error)

	GetOrCreateChannel(ctx context.Context, channelID string) (ChannelScan, error)
	SaveChannel(ctx context.Context, c ChannelScan) error
}
