package commands

import "sync"

// channelHistory remembers the authors of recent messages per channel so the
// xp scan can re-credit them. Bounded, newest last.
type channelHistory struct {
	mu   sync.Mutex
	cap  int
	byID map[string][]string
}

func newChannelHistory(cap int) *channelHistory {
	if cap <= 0 {
		cap = 100
	}
	return &channelHistory{cap: cap, byID: map[string][]string{}}
}

func (h *channelHistory) Record(channelID, authorID string) {
	if channelID == "" || authorID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	q := append(h.byID[channelID], authorID)
	if len(q) > h.cap {
		q = q[len(q)-h.cap:]
	}
	h.byID[channelID] = q
}

// Recent returns up to n author ids, most recent first.
func (h *channelHistory) Recent(channelID string, n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := h.byID[channelID]
	if n > len(q) {
		n = len(q)
	}
	out := make([]string, 0, n)
	for i := len(q) - 1; i >= len(q)-n; i-- {
		out = append(out, q[i])
	}
	return out
}
