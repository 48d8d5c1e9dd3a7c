package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"guildhall.gg/internal/content"
	"guildhall.gg/internal/economy"
)

// scriptRoller replays queued values; the last value repeats once the queue
// drains. Intn results are clamped into range.
type scriptRoller struct {
	floats []float64
	ints   []int
}

func (r *scriptRoller) Float64() float64 {
	v := 0.0
	if len(r.floats) > 0 {
		v = r.floats[0]
		if len(r.floats) > 1 {
			r.floats = r.floats[1:]
		}
	}
	return v
}

func (r *scriptRoller) Intn(n int) int {
	v := 0
	if len(r.ints) > 0 {
		v = r.ints[0]
		if len(r.ints) > 1 {
			r.ints = r.ints[1:]
		}
	}
	if v >= n {
		v = n - 1
	}
	return v
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memStore struct {
	mu       sync.Mutex
	players  map[string]economy.Ledger
	channels map[string]economy.ChannelScan
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{
		players:  map[string]economy.Ledger{},
		channels: map[string]economy.ChannelScan{},
	}
}

func (m *memStore) GetOrCreate(_ context.Context, id string) (economy.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.players[id]; ok {
		return l, nil
	}
	l := economy.Ledger{PlayerID: id, JoinDate: time.Now()}
	m.players[id] = l
	return l, nil
}

func (m *memStore) Get(_ context.Context, id string) (economy.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.players[id]
	if !ok {
		return economy.Ledger{}, economy.ErrNotFound
	}
	return l, nil
}

func (m *memStore) Save(_ context.Context, l economy.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("store unavailable")
	}
	m.players[l.PlayerID] = l
	return nil
}

func (m *memStore) Top(_ context.Context, n int) ([]economy.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]economy.Ledger, 0, len(m.players))
	for _, l := range m.players {
		out = append(out, l)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].XP > out[i].XP {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) WithGrants(_ context.Context) ([]economy.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []economy.Ledger
	for _, l := range m.players {
		if len(l.TempGrants) > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetOrCreateChannel(_ context.Context, id string) (economy.ChannelScan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.channels[id]; ok {
		return c, nil
	}
	c := economy.ChannelScan{ChannelID: id}
	m.channels[id] = c
	return c, nil
}

func (m *memStore) SaveChannel(_ context.Context, c economy.ChannelScan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[c.ChannelID] = c
	return nil
}

func (m *memStore) ledger(id string) economy.Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[id]
}

func (m *memStore) put(l economy.Ledger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[l.PlayerID] = l
}

func testCatalog() *content.Catalog {
	locs := []content.Location{
		{
			ID: "glade", Name: "Quiet Glade",
			Enemies:  []content.Enemy{{Name: "Grunt", HP: 50, Damage: 5, XP: 20, Coin: 10}},
			Resource: content.Resource{Name: "Wood", Verb: "chop"},
		},
		{
			ID: "cave", Name: "Echo Cave",
			Enemies:  []content.Enemy{{Name: "Brute", HP: 30, Damage: 8, XP: 15, Coin: 8}},
			Resource: content.Resource{Name: "Ore", Verb: "mine"},
		},
		{
			ID: "marsh", Name: "Black Marsh",
			Enemies:  []content.Enemy{{Name: "Lurker", HP: 40, Damage: 6, XP: 25, Coin: 15}},
			Resource: content.Resource{Name: "Reeds", Verb: "cut"},
		},
		{
			ID: "peak", Name: "Frost Peak",
			Enemies:  []content.Enemy{{Name: "Wyrm", HP: 5, Damage: 3, XP: 60, Coin: 40}},
			Resource: content.Resource{Name: "Ice", Verb: "carve"},
		},
	}
	c := &content.Catalog{
		Locations: locs,
		ByID:      map[string]*content.Location{},
		Digest:    "test",
	}
	for i := range c.Locations {
		c.ByID[c.Locations[i].ID] = &c.Locations[i]
	}
	return c
}
