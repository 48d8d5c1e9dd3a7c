// Package roles expires timed membership grants: a background sweep finds
// ledgers holding grants, drops the expired ones, and revokes the matching
// platform perk.
package roles

import (
	"context"
	"log"
	"time"

	"guildhall.gg/internal/economy"
	"guildhall.gg/internal/persistence/auditlog"
)

// Membership revokes platform perks. Kept local so the package does not pull
// in the api package for one method.
type Membership interface {
	Revoke(ctx context.Context, playerID, grantID string) error
}

const defaultInterval = time.Minute

type Sweeper struct {
	store      economy.Store
	membership Membership
	audit      *auditlog.Logger
	log        *log.Logger
	interval   time.Duration
	now        func() time.Time
}

type Config struct {
	Store economy.Store
	Log   *log.Logger

	// Optional.
	Membership Membership
	Audit      *auditlog.Logger
	Interval   time.Duration
	Now        func() time.Time
}

func NewSweeper(cfg Config) *Sweeper {
	s := &Sweeper{
		store:      cfg.Store,
		membership: cfg.Membership,
		audit:      cfg.Audit,
		log:        cfg.Log,
		interval:   cfg.Interval,
		now:        cfg.Now,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = log.Default()
	}
	return s
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Printf("roles: sweep: %v", err)
			}
		}
	}
}

// Sweep runs one pass. A revoke failure keeps the grant on the ledger so the
// next pass retries it.
func (s *Sweeper) Sweep(ctx context.Context) error {
	holders, err := s.store.WithGrants(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, l := range holders {
		expired := l.PruneGrants(now)
		if len(expired) == 0 {
			continue
		}
		var revoked []economy.TempGrant
		for _, g := range expired {
			if s.membership != nil {
				if err := s.membership.Revoke(ctx, l.PlayerID, g.GrantID); err != nil {
					s.log.Printf("roles: revoke %s from %s: %v", g.GrantID, l.PlayerID, err)
					// Put it back and retry next pass.
					l.TempGrants = append(l.TempGrants, g)
					continue
				}
			}
			revoked = append(revoked, g)
		}
		if err := s.store.Save(ctx, l); err != nil {
			s.log.Printf("roles: save %s: %v", l.PlayerID, err)
			continue
		}
		for _, g := range revoked {
			_ = s.audit.Write(auditlog.Entry{
				At:       now,
				PlayerID: l.PlayerID,
				Kind:     "revoke",
				Detail:   g.GrantID,
			})
		}
	}
	return nil
}
