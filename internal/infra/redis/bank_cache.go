package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"chakravyuh-round/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the full question bank from the database.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// BankCache shares the question bank across instances through Redis and
// falls back to a loader on cache miss.
// Questions are stored as: HSET bank:questions {questionID} {json}
type BankCache struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const bankKey = "bank:questions"

func NewBankCache(client *redis.Client, loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) LoadBank(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.fromCache(ctx); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.fromCache(ctx); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return questions, nil
		}

		fields := make(map[string]interface{}, len(questions))
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %d: %w", q.ID, err)
			}
			fields[strconv.FormatInt(q.ID, 10)] = raw
		}
		ttl := c.ttlWithJitter()
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, bankKey)
		pipe.HSet(ctx, bankKey, fields)
		if ttl > 0 {
			pipe.Expire(ctx, bankKey, ttl)
		}
		// a failed write only costs another load
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes the shared copy, e.g. after seeding new questions.
func (c *BankCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, bankKey).Err()
}

func (c *BankCache) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.HGetAll(ctx, bankKey).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	questions := make([]domain.Question, 0, len(raw))
	for _, v := range raw {
		var q domain.Question
		if err := json.Unmarshal([]byte(v), &q); err != nil {
			return nil, false
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, true
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
