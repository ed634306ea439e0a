package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"chakravyuh-round/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the full question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank caches the question bank with TTL to avoid repeated DB hits.
// Every read hands out a fresh slice so callers may reorder it.
type QuestionBank struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	snap      *Index
	expiresAt time.Time
}

func NewQuestionBank(loader BankLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) QuestionsForSet(ctx context.Context, setID, limit int) ([]domain.Question, error) {
	idx, err := b.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.ForSet(setID, limit), nil
}

func (b *QuestionBank) AnyQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	idx, err := b.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.All(limit), nil
}

func (b *QuestionBank) Question(ctx context.Context, id int64) (domain.Question, error) {
	idx, err := b.index(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	return idx.Question(id)
}

func (b *QuestionBank) SetIDs(ctx context.Context) ([]int, error) {
	idx, err := b.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.SetIDs(), nil
}

// Invalidate drops the cached snapshot; the next read reloads it.
func (b *QuestionBank) Invalidate() {
	b.mu.Lock()
	b.snap = nil
	b.mu.Unlock()
}

func (b *QuestionBank) index(ctx context.Context) (*Index, error) {
	if idx := b.cached(); idx != nil {
		return idx, nil
	}

	result, err, _ := b.sf.Do("bank", func() (interface{}, error) {
		if idx := b.cached(); idx != nil {
			return idx, nil
		}
		questions, err := b.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		idx := NewIndex(questions)

		b.mu.Lock()
		b.snap = idx
		b.expiresAt = b.clock().Add(b.ttlWithJitter())
		b.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Index), nil
}

func (b *QuestionBank) cached() *Index {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.snap != nil && (b.ttl <= 0 || b.expiresAt.After(b.clock())) {
		return b.snap
	}
	return nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// Index is an immutable, id-ordered view of the question bank.
type Index struct {
	ordered []domain.Question
	byID    map[int64]int
	bySet   map[int][]int
	setIDs  []int
}

func NewIndex(questions []domain.Question) *Index {
	ordered := append([]domain.Question(nil), questions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	idx := &Index{
		ordered: ordered,
		byID:    make(map[int64]int, len(ordered)),
		bySet:   make(map[int][]int),
	}
	for i, q := range ordered {
		idx.byID[q.ID] = i
		if _, ok := idx.bySet[q.SetID]; !ok {
			idx.setIDs = append(idx.setIDs, q.SetID)
		}
		idx.bySet[q.SetID] = append(idx.bySet[q.SetID], i)
	}
	sort.Ints(idx.setIDs)
	return idx
}

func (x *Index) ForSet(setID, limit int) []domain.Question {
	positions := x.bySet[setID]
	if limit > 0 && len(positions) > limit {
		positions = positions[:limit]
	}
	out := make([]domain.Question, 0, len(positions))
	for _, i := range positions {
		out = append(out, x.ordered[i])
	}
	return out
}

func (x *Index) All(limit int) []domain.Question {
	n := len(x.ordered)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]domain.Question(nil), x.ordered[:n]...)
}

func (x *Index) Question(id int64) (domain.Question, error) {
	i, ok := x.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return x.ordered[i], nil
}

func (x *Index) SetIDs() []int {
	return append([]int(nil), x.setIDs...)
}

func (x *Index) Len() int { return len(x.ordered) }

// StaticQuestionLoader is a loader backed by a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadBank(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), l.questions...), nil
}
