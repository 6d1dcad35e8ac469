package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository поверх Store
type QuestionRepo struct {
	store *Store
}

// CreateWithDesire создает вопрос (или находит существующий с тем же текстом)
// и записывает желаемый ответ автора
func (r *QuestionRepo) CreateWithDesire(ctx context.Context, text string, authorID uint, desired bool) (*entity.Question, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	question, _ := s.insertQuestionLocked(entity.NormalizeQuestionText(text), authorID)
	s.setDesireLocked(authorID, question.ID, desired)

	result := *question
	return &result, nil
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	question, ok := s.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	result := *question
	return &result, nil
}

// GetByText возвращает вопрос по нормализованному тексту
func (r *QuestionRepo) GetByText(ctx context.Context, text string) (*entity.Question, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.questionByText[entity.NormalizeQuestionText(text)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	result := *s.questions[id]
	return &result, nil
}

// SetDesiredAnswer записывает желаемый ответ пользователя (upsert)
func (r *QuestionRepo) SetDesiredAnswer(ctx context.Context, userID, questionID uint, desired bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[questionID]; !ok {
		return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
	}
	s.setDesireLocked(userID, questionID, desired)
	return nil
}

// DesiredAnswerOf возвращает желаемый ответ пользователя на вопрос
func (r *QuestionRepo) DesiredAnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	desire, ok := s.desires[pairKey{userID: userID, questionID: questionID}]
	if !ok {
		return entity.StanceAbsent, nil
	}
	return entity.StanceOf(desire.Desired), nil
}

// DesiredAnswersFor возвращает желаемые ответы всех пользователей на вопрос
func (r *QuestionRepo) DesiredAnswersFor(ctx context.Context, questionID uint) (map[uint]bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint]bool)
	for key, desire := range s.desires {
		if key.questionID == questionID {
			result[key.userID] = desire.Desired
		}
	}
	return result, nil
}

// QuestionsDesiredBy возвращает ID вопросов, на которые пользователь указал желаемый ответ
func (r *QuestionRepo) QuestionsDesiredBy(ctx context.Context, userID uint) ([]uint, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0)
	for key := range s.desires {
		if key.userID == userID {
			ids = append(ids, key.questionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// EnsureSeeded добавляет отсутствующие вопросы стартового каталога
func (r *QuestionRepo) EnsureSeeded(ctx context.Context, texts []string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, text := range texts {
		text = entity.NormalizeQuestionText(text)
		if text == "" {
			continue
		}
		if _, created := s.insertQuestionLocked(text, entity.SystemAuthorID); created {
			inserted++
		}
	}
	return inserted, nil
}

// ListStats возвращает каталог вопросов со статистикой ответов
func (r *QuestionRepo) ListStats(ctx context.Context) ([]entity.QuestionStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[uint]*entity.QuestionStats, len(s.questions))
	stats := make([]entity.QuestionStats, 0, len(s.questions))
	for _, q := range s.questions {
		stats = append(stats, entity.QuestionStats{
			ID:        q.ID,
			Text:      q.Text,
			CreatedBy: q.CreatedBy,
			CreatedAt: q.CreatedAt,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	for i := range stats {
		byID[stats[i].ID] = &stats[i]
	}

	for key, entry := range s.ledger {
		value, ok := entry.Stance().Bool()
		if !ok {
			continue
		}
		st := byID[key.questionID]
		st.AnswerCount++
		if value {
			st.YesCount++
		}
	}
	for key := range s.desires {
		byID[key.questionID].DesireCount++
	}
	return stats, nil
}
