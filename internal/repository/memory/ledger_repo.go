package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// LedgerRepo реализует repository.LedgerRepository поверх Store
type LedgerRepo struct {
	store *Store
}

// RecordAnswer записывает ответ пользователя и снимает пропуск
func (r *LedgerRepo) RecordAnswer(ctx context.Context, userID, questionID uint, answer bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[questionID]; !ok {
		return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
	}
	s.entryLocked(userID, questionID).ApplyAnswer(answer, s.now())
	return nil
}

// RecordSkip помечает вопрос пропущенным, если ответа ещё нет
func (r *LedgerRepo) RecordSkip(ctx context.Context, userID, questionID uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[questionID]; !ok {
		return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
	}
	s.entryLocked(userID, questionID).ApplySkip(s.now())
	return nil
}

// AnsweredQuestions возвращает ID вопросов, на которые пользователь ответил
func (r *LedgerRepo) AnsweredQuestions(ctx context.Context, userID uint) ([]uint, error) {
	return r.collect(userID, (*entity.LedgerEntry).IsAnswered), nil
}

// SkippedQuestions возвращает ID пропущенных вопросов без ответа
func (r *LedgerRepo) SkippedQuestions(ctx context.Context, userID uint) ([]uint, error) {
	return r.collect(userID, (*entity.LedgerEntry).IsSkipped), nil
}

func (r *LedgerRepo) collect(userID uint, match func(*entity.LedgerEntry) bool) []uint {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0)
	for key, entry := range s.ledger {
		if key.userID == userID && match(entry) {
			ids = append(ids, key.questionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AnswerOf возвращает ответ пользователя на вопрос
func (r *LedgerRepo) AnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.ledger[pairKey{userID: userID, questionID: questionID}]
	if !ok {
		return entity.StanceAbsent, nil
	}
	return entry.Stance(), nil
}

// UsersWhoAnswered возвращает ответы всех пользователей на вопрос: userID -> answer
func (r *LedgerRepo) UsersWhoAnswered(ctx context.Context, questionID uint) (map[uint]bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint]bool)
	for key, entry := range s.ledger {
		if key.questionID != questionID {
			continue
		}
		if value, ok := entry.Stance().Bool(); ok {
			result[key.userID] = value
		}
	}
	return result, nil
}

// AnswersOf возвращает все ответы пользователя: questionID -> answer
func (r *LedgerRepo) AnswersOf(ctx context.Context, userID uint) (map[uint]bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.answersOfLocked(userID), nil
}

// UsersMatchingAnswers возвращает пользователей, ответивших на каждый вопрос из filters ровно так, как указано
func (r *LedgerRepo) UsersMatchingAnswers(ctx context.Context, filters map[uint]bool) ([]uint, error) {
	if len(filters) == 0 {
		return []uint{}, nil
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make(map[uint]int)
	for key, entry := range s.ledger {
		want, ok := filters[key.questionID]
		if !ok {
			continue
		}
		if value, answered := entry.Stance().Bool(); answered && value == want {
			hits[key.userID]++
		}
	}

	ids := make([]uint, 0)
	for userID, count := range hits {
		if count == len(filters) {
			ids = append(ids, userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// answersOfLocked вызывается под s.mu
func (s *Store) answersOfLocked(userID uint) map[uint]bool {
	result := make(map[uint]bool)
	for key, entry := range s.ledger {
		if key.userID != userID {
			continue
		}
		if value, ok := entry.Stance().Bool(); ok {
			result[key.questionID] = value
		}
	}
	return result
}
