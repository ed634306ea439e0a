package app

import (
	"context"
	"fmt"
	"time"

	"chakravyuh-round/internal/domain"
)

// assigner picks question sets and fills a team's seven positions.
type assigner struct {
	bank QuestionBank
	intn func(n int) int
}

// pickSet draws a uniform set id, avoiding exclude whenever another set exists.
func (a *assigner) pickSet(ctx context.Context, exclude int) (int, error) {
	ids, err := a.bank.SetIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list question sets: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: question bank is empty", domain.ErrDataIntegrity)
	}
	candidates := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		candidates = ids
	}
	return candidates[a.intn(len(candidates))], nil
}

// selectQuestions returns QuestionsPerSet distinct question ids for setID.
// Without randomize the set is taken in ascending id order; with it the set
// and the bank-wide top-up are shuffled so a reassigned team does not get the
// questions it just failed in the same order.
func (a *assigner) selectQuestions(ctx context.Context, setID int, randomize bool) ([]int64, error) {
	limit := domain.QuestionsPerSet
	if randomize {
		limit = 0
	}
	inSet, err := a.bank.QuestionsForSet(ctx, setID, limit)
	if err != nil {
		return nil, fmt.Errorf("load set %d: %w", setID, err)
	}
	if randomize {
		a.shuffle(inSet)
	}

	ids := make([]int64, 0, domain.QuestionsPerSet)
	seen := make(map[int64]struct{}, domain.QuestionsPerSet)
	take := func(qs []domain.Question) {
		for _, q := range qs {
			if len(ids) == domain.QuestionsPerSet {
				return
			}
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			ids = append(ids, q.ID)
		}
	}
	take(inSet)

	if len(ids) < domain.QuestionsPerSet {
		all, err := a.bank.AnyQuestions(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("load question bank: %w", err)
		}
		if randomize {
			a.shuffle(all)
		}
		take(all)
	}
	if len(ids) < domain.QuestionsPerSet {
		return nil, fmt.Errorf("%w: question bank holds %d distinct questions, need %d",
			domain.ErrDataIntegrity, len(ids), domain.QuestionsPerSet)
	}
	return ids, nil
}

// assignSet replaces the team's assignment with a full set. Callers run it
// inside the transaction that owns the team's progress row.
func (a *assigner) assignSet(ctx context.Context, repo Repository, teamID int64, setID int, randomize bool, now time.Time) error {
	ids, err := a.selectQuestions(ctx, setID, randomize)
	if err != nil {
		return err
	}
	if err := repo.ReplaceAssignments(ctx, teamID, ids, now); err != nil {
		return fmt.Errorf("replace assignments: %w", err)
	}
	return nil
}

func (a *assigner) shuffle(qs []domain.Question) {
	for i := len(qs) - 1; i > 0; i-- {
		j := a.intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}
