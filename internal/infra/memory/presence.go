package memory

import (
	"context"
	"sync"
)

// Presence counts open participant sockets per team in this process.
type Presence struct {
	mu    sync.Mutex
	teams map[int64]int
}

func NewPresence() *Presence {
	return &Presence{teams: make(map[int64]int)}
}

func (p *Presence) Join(_ context.Context, teamID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teams[teamID]++
}

func (p *Presence) Leave(_ context.Context, teamID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.teams[teamID]
	if !ok {
		return
	}
	if n <= 1 {
		delete(p.teams, teamID)
		return
	}
	p.teams[teamID] = n - 1
}

// Online reports how many distinct teams hold at least one socket.
func (p *Presence) Online(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.teams), nil
}

// Touch is a no-op; local sockets never expire.
func (p *Presence) Touch(context.Context, int64) {}
