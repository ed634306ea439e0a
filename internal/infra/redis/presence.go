package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence tracks connected teams across instances.
// Notes:
//   - Sockets are refcounted locally; Redis only holds a liveness marker per
//     team so a crashed instance's markers expire on their own.
//   - Online counts markers from every instance.
type Presence struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	teams map[int64]int
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{
		client: client,
		ttl:    ttl,
		teams:  make(map[int64]int),
	}
}

func (p *Presence) Join(ctx context.Context, teamID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teams[teamID]++
	// best-effort liveness marker
	_ = p.client.Set(ctx, p.key(teamID), "1", p.ttl).Err()
}

func (p *Presence) Leave(ctx context.Context, teamID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.teams[teamID]
	if !ok {
		return
	}
	if n > 1 {
		p.teams[teamID] = n - 1
		return
	}
	delete(p.teams, teamID)
	_ = p.client.Del(ctx, p.key(teamID)).Err()
}

// Touch refreshes the marker of a team with an open socket.
func (p *Presence) Touch(ctx context.Context, teamID int64) {
	_ = p.client.Expire(ctx, p.key(teamID), p.ttl).Err()
}

func (p *Presence) Online(ctx context.Context) (int, error) {
	n := 0
	iter := p.client.Scan(ctx, 0, "presence:team:*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Presence) key(teamID int64) string {
	return "presence:team:" + strconv.FormatInt(teamID, 10)
}
