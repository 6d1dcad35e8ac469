package repository

import (
	"context"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// LedgerRepository определяет методы журнала ответов и пропусков
type LedgerRepository interface {
	// RecordAnswer записывает ответ (upsert) и снимает пропуск для этой пары
	RecordAnswer(ctx context.Context, userID, questionID uint, answer bool) error
	// RecordSkip помечает вопрос пропущенным; ничего не делает, если ответ уже есть
	RecordSkip(ctx context.Context, userID, questionID uint) error

	AnsweredQuestions(ctx context.Context, userID uint) ([]uint, error)
	SkippedQuestions(ctx context.Context, userID uint) ([]uint, error)
	AnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error)
	UsersWhoAnswered(ctx context.Context, questionID uint) (map[uint]bool, error)
	// AnswersOf возвращает все ответы пользователя: questionID -> answer
	AnswersOf(ctx context.Context, userID uint) (map[uint]bool, error)

	// UsersMatchingAnswers возвращает пользователей, чьи ответы совпадают со всеми фильтрами (questionID -> answer)
	UsersMatchingAnswers(ctx context.Context, filters map[uint]bool) ([]uint, error)
}
