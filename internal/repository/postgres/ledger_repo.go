package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// LedgerRepo реализует repository.LedgerRepository.
// Ответ и пропуск хранятся в одной строке ledger_entries, поэтому каждое изменение
// сводится к одному INSERT ... ON CONFLICT под блокировкой строки.
type LedgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepo создает новый репозиторий журнала ответов
func NewLedgerRepo(db *gorm.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// RecordAnswer записывает ответ пользователя и снимает пропуск
func (r *LedgerRepo) RecordAnswer(ctx context.Context, userID, questionID uint, answer bool) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO ledger_entries (user_id, question_id, answer, skipped, answered_at, updated_at)
		VALUES (?, ?, ?, FALSE, ?, ?)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET answer = EXCLUDED.answer, skipped = FALSE,
			answered_at = EXCLUDED.answered_at, updated_at = EXCLUDED.updated_at
	`, userID, questionID, answer, now, now).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
		}
		return fmt.Errorf("record answer user #%d question #%d failed: %w", userID, questionID, err)
	}
	return nil
}

// RecordSkip помечает вопрос пропущенным. Строка с ответом не изменяется.
func (r *LedgerRepo) RecordSkip(ctx context.Context, userID, questionID uint) error {
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO ledger_entries (user_id, question_id, answer, skipped, updated_at)
		VALUES (?, ?, NULL, TRUE, ?)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET skipped = TRUE, updated_at = EXCLUDED.updated_at
		WHERE ledger_entries.answer IS NULL
	`, userID, questionID, time.Now()).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
		}
		return fmt.Errorf("record skip user #%d question #%d failed: %w", userID, questionID, err)
	}
	return nil
}

// AnsweredQuestions возвращает ID вопросов, на которые пользователь ответил
func (r *LedgerRepo) AnsweredQuestions(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.LedgerEntry{}).
		Where("user_id = ? AND answer IS NOT NULL", userID).
		Order("question_id").
		Pluck("question_id", &ids).Error
	return ids, err
}

// SkippedQuestions возвращает ID пропущенных вопросов без ответа
func (r *LedgerRepo) SkippedQuestions(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.LedgerEntry{}).
		Where("user_id = ? AND answer IS NULL AND skipped", userID).
		Order("question_id").
		Pluck("question_id", &ids).Error
	return ids, err
}

// AnswerOf возвращает ответ пользователя на вопрос
func (r *LedgerRepo) AnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error) {
	var entries []entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return entity.StanceAbsent, err
	}
	if len(entries) == 0 {
		return entity.StanceAbsent, nil
	}
	return entries[0].Stance(), nil
}

// UsersWhoAnswered возвращает ответы всех пользователей на вопрос: userID -> answer
func (r *LedgerRepo) UsersWhoAnswered(ctx context.Context, questionID uint) (map[uint]bool, error) {
	var entries []entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND answer IS NOT NULL", questionID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return answersByUser(entries), nil
}

// AnswersOf возвращает все ответы пользователя: questionID -> answer
func (r *LedgerRepo) AnswersOf(ctx context.Context, userID uint) (map[uint]bool, error) {
	var entries []entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND answer IS NOT NULL", userID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uint]bool, len(entries))
	for _, e := range entries {
		if value, ok := e.Stance().Bool(); ok {
			result[e.QuestionID] = value
		}
	}
	return result, nil
}

// UsersMatchingAnswers возвращает пользователей, ответивших на каждый вопрос из filters ровно так, как указано
func (r *LedgerRepo) UsersMatchingAnswers(ctx context.Context, filters map[uint]bool) ([]uint, error) {
	if len(filters) == 0 {
		return []uint{}, nil
	}

	query := r.db.WithContext(ctx).Model(&entity.LedgerEntry{}).Select("user_id")
	conditions := r.db.Session(&gorm.Session{NewDB: true})
	first := true
	for questionID, answer := range filters {
		if first {
			conditions = conditions.Where("question_id = ? AND answer = ?", questionID, answer)
			first = false
			continue
		}
		conditions = conditions.Or("question_id = ? AND answer = ?", questionID, answer)
	}

	var ids []uint
	err := query.
		Where(conditions).
		Group("user_id").
		Having("COUNT(*) = ?", len(filters)).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func answersByUser(entries []entity.LedgerEntry) map[uint]bool {
	result := make(map[uint]bool, len(entries))
	for _, e := range entries {
		if value, ok := e.Stance().Bool(); ok {
			result[e.UserID] = value
		}
	}
	return result
}
