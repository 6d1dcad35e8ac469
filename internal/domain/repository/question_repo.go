package repository

import (
	"context"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// QuestionRepository определяет методы каталога вопросов и желаемых ответов
type QuestionRepository interface {
	// CreateWithDesire создаёт вопрос и желаемый ответ автора в одной транзакции.
	// Если вопрос с таким же текстом уже есть, он переиспользуется, а желаемый ответ обновляется.
	CreateWithDesire(ctx context.Context, text string, authorID uint, desired bool) (*entity.Question, error)
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	GetByText(ctx context.Context, text string) (*entity.Question, error)

	// SetDesiredAnswer записывает желаемый ответ (upsert). ErrNotFound для несуществующего вопроса.
	SetDesiredAnswer(ctx context.Context, userID, questionID uint, desired bool) error
	DesiredAnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error)
	DesiredAnswersFor(ctx context.Context, questionID uint) (map[uint]bool, error)
	QuestionsDesiredBy(ctx context.Context, userID uint) ([]uint, error)

	// EnsureSeeded добавляет вопросы стартового каталога, которых ещё нет. Возвращает число добавленных.
	EnsureSeeded(ctx context.Context, texts []string) (int, error)
	// ListStats возвращает весь каталог со статистикой, упорядоченный по ID
	ListStats(ctx context.Context) ([]entity.QuestionStats, error)
}
