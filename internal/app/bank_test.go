package app

import (
	"context"

	"chakravyuh-round/internal/domain"
)

// fakeSets is a QuestionBank that only knows set ids.
type fakeSets []int

func (f fakeSets) QuestionsForSet(context.Context, int, int) ([]domain.Question, error) {
	return nil, nil
}

func (f fakeSets) AnyQuestions(context.Context, int) ([]domain.Question, error) { return nil, nil }

func (f fakeSets) Question(context.Context, int64) (domain.Question, error) {
	return domain.Question{}, domain.ErrNotFound
}

func (f fakeSets) SetIDs(context.Context) ([]int, error) { return []int(f), nil }
