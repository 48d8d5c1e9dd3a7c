// Package ledgerdb is the sqlite-backed economy.Store.
package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"guildhall.gg/internal/economy"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps reads cheap while command handlers rewrite player rows.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL,
			xp INTEGER NOT NULL,
			rep INTEGER NOT NULL,
			last_daily INTEGER NOT NULL,
			last_rep INTEGER NOT NULL,
			join_date INTEGER NOT NULL,
			explore_count INTEGER NOT NULL,
			last_explore_reset INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_players_xp ON players(xp);`,
		`CREATE TABLE IF NOT EXISTS temp_grants (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL REFERENCES players(id),
			grant_id TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_temp_grants_player ON temp_grants(player_id);`,
		`CREATE TABLE IF NOT EXISTS channels (
			id TEXT PRIMARY KEY,
			last_scan INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, playerID string) (economy.Ledger, error) {
	l, err := s.Get(ctx, playerID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, economy.ErrNotFound) {
		return economy.Ledger{}, err
	}

	l = economy.Ledger{PlayerID: playerID, JoinDate: time.Now()}
	// INSERT OR IGNORE keeps creation idempotent under concurrent first sight.
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO players
		 (id, balance, xp, rep, last_daily, last_rep, join_date, explore_count, last_explore_reset)
		 VALUES (?, 0, 0, 0, 0, 0, ?, 0, 0)`,
		playerID, l.JoinDate.UnixMilli())
	if err != nil {
		return economy.Ledger{}, fmt.Errorf("create player %s: %w", playerID, err)
	}
	return s.Get(ctx, playerID)
}

func (s *SQLiteStore) Get(ctx context.Context, playerID string) (economy.Ledger, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, balance, xp, rep, last_daily, last_rep, join_date, explore_count, last_explore_reset
		 FROM players WHERE id = ?`, playerID)
	l, err := scanLedger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return economy.Ledger{}, economy.ErrNotFound
	}
	if err != nil {
		return economy.Ledger{}, err
	}
	if err := s.loadGrants(ctx, &l); err != nil {
		return economy.Ledger{}, err
	}
	return l, nil
}

func (s *SQLiteStore) Save(ctx context.Context, l economy.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO players
		 (id, balance, xp, rep, last_daily, last_rep, join_date, explore_count, last_explore_reset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   balance=excluded.balance, xp=excluded.xp, rep=excluded.rep,
		   last_daily=excluded.last_daily, last_rep=excluded.last_rep,
		   join_date=excluded.join_date, explore_count=excluded.explore_count,
		   last_explore_reset=excluded.last_explore_reset`,
		l.PlayerID, l.Balance, l.XP, l.Rep,
		millis(l.LastDaily), millis(l.LastRep), millis(l.JoinDate),
		l.ExploreCount, millis(l.LastExploreReset))
	if err != nil {
		return fmt.Errorf("save player %s: %w", l.PlayerID, err)
	}

	// Full-record write: grants are replaced, not merged.
	if _, err := tx.ExecContext(ctx, `DELETE FROM temp_grants WHERE player_id = ?`, l.PlayerID); err != nil {
		return err
	}
	for _, g := range l.TempGrants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO temp_grants (player_id, grant_id, expires_at) VALUES (?, ?, ?)`,
			l.PlayerID, g.GrantID, g.ExpiresAt.UnixMilli()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Top(ctx context.Context, n int) ([]economy.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, balance, xp, rep, last_daily, last_rep, join_date, explore_count, last_explore_reset
		 FROM players ORDER BY xp DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) WithGrants(ctx context.Context) ([]economy.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT p.id, p.balance, p.xp, p.rep, p.last_daily, p.last_rep, p.join_date, p.explore_count, p.last_explore_reset
		 FROM players p JOIN temp_grants g ON g.player_id = p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []economy.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadGrants(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) GetOrCreateChannel(ctx context.Context, channelID string) (economy.ChannelScan, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO channels (id, last_scan) VALUES (?, 0)`, channelID); err != nil {
		return economy.ChannelScan{}, err
	}
	var lastScan int64
	err := s.db.QueryRowContext(ctx, `SELECT last_scan FROM channels WHERE id = ?`, channelID).Scan(&lastScan)
	if err != nil {
		return economy.ChannelScan{}, err
	}
	return economy.ChannelScan{ChannelID: channelID, LastScan: fromMillis(lastScan)}, nil
}

func (s *SQLiteStore) SaveChannel(ctx context.Context, c economy.ChannelScan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (id, last_scan) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_scan=excluded.last_scan`,
		c.ChannelID, millis(c.LastScan))
	return err
}

func (s *SQLiteStore) loadGrants(ctx context.Context, l *economy.Ledger) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT grant_id, expires_at FROM temp_grants WHERE player_id = ? ORDER BY seq`, l.PlayerID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g economy.TempGrant
		var exp int64
		if err := rows.Scan(&g.GrantID, &exp); err != nil {
			return err
		}
		g.ExpiresAt = fromMillis(exp)
		l.TempGrants = append(l.TempGrants, g)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedger(r rowScanner) (economy.Ledger, error) {
	var l economy.Ledger
	var lastDaily, lastRep, joinDate, lastExplore int64
	err := r.Scan(&l.PlayerID, &l.Balance, &l.XP, &l.Rep,
		&lastDaily, &lastRep, &joinDate, &l.ExploreCount, &lastExplore)
	if err != nil {
		return economy.Ledger{}, err
	}
	l.LastDaily = fromMillis(lastDaily)
	l.LastRep = fromMillis(lastRep)
	l.JoinDate = fromMillis(joinDate)
	l.LastExploreReset = fromMillis(lastExplore)
	return l, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

var _ economy.Store = (*SQLiteStore)(nil)
