package app

import (
	"io"
	"log/slog"
	"math/rand"
	"time"
)

// core carries the collaborators shared by every round use case.
type core struct {
	store  Store
	bank   QuestionBank
	logger *slog.Logger
	now    func() time.Time
	intn   func(n int) int
}

// Option customizes the services built by New.
type Option func(*core)

// WithLogger sets the structured logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *core) { c.logger = logger }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

// WithRandom replaces the uniform picker used for set selection and shuffling.
// intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(c *core) { c.intn = intn }
}

// Services groups the round use cases over one store and question bank.
type Services struct {
	Round       *RoundService
	Progress    *ProgressService
	Leaderboard *LeaderboardService
	Review      *ReviewService
}

// New wires every round use case against store and bank.
func New(store Store, bank QuestionBank, opts ...Option) *Services {
	c := &core{
		store:  store,
		bank:   bank,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
		intn:   rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	a := &assigner{bank: bank, intn: c.intn}
	return &Services{
		Round:       &RoundService{core: c, assign: a},
		Progress:    &ProgressService{core: c, assign: a},
		Leaderboard: &LeaderboardService{core: c},
		Review:      &ReviewService{core: c},
	}
}
