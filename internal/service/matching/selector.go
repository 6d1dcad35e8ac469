package matching

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// QuestionSelector выбирает следующий вопрос для пользователя.
// Селектор только читает данные.
type QuestionSelector struct {
	deps *Dependencies
}

// NewQuestionSelector создаёт новый селектор
func NewQuestionSelector(deps *Dependencies) *QuestionSelector {
	return &QuestionSelector{deps: deps}
}

// NextQuestion возвращает следующий вопрос для пользователя или nil, если подходящих вопросов нет.
// Порядок выбора:
//  1. вопросы, на которые пользователь ответил или которые пропустил, исключаются;
//  2. вопросы с желаемым ответом от другого пользователя идут раньше остальных;
//  3. внутри группы: меньше всего ответов, затем более ранний createdAt, затем меньший ID.
func (s *QuestionSelector) NextQuestion(ctx context.Context, userID uint) (*entity.Question, error) {
	candidates, err := s.deps.SnapshotRepo.ListCandidates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list question candidates: %w", err)
	}
	if len(candidates) == 0 {
		log.Printf("[QuestionSelector] Для пользователя #%d не осталось вопросов", userID)
		return nil, nil
	}

	RankCandidates(candidates)
	question := candidates[0].Question
	return &question, nil
}

// RankCandidates упорядочивает кандидатов по приоритету выбора (первый — лучший)
func RankCandidates(candidates []entity.QuestionCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidateLess(&candidates[i], &candidates[j])
	})
}

func candidateLess(a, b *entity.QuestionCandidate) bool {
	if a.DesiredByOthers != b.DesiredByOthers {
		return a.DesiredByOthers
	}
	if a.AnswerCount != b.AnswerCount {
		return a.AnswerCount < b.AnswerCount
	}
	if !a.Question.CreatedAt.Equal(b.Question.CreatedAt) {
		return a.Question.CreatedAt.Before(b.Question.CreatedAt)
	}
	return a.Question.ID < b.Question.ID
}
