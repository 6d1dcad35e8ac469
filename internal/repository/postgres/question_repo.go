package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

const insertQuestionSQL = `
	INSERT INTO questions (text, created_by, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (text) DO NOTHING
	RETURNING id, text, created_by, created_at`

const upsertDesireSQL = `
	INSERT INTO desired_answers (user_id, question_id, desired, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id, question_id)
	DO UPDATE SET desired = EXCLUDED.desired, updated_at = EXCLUDED.updated_at`

// CreateWithDesire создает вопрос и желаемый ответ автора в одной транзакции.
// Вопрос с тем же текстом переиспользуется.
func (r *QuestionRepo) CreateWithDesire(ctx context.Context, text string, authorID uint, desired bool) (*entity.Question, error) {
	text = entity.NormalizeQuestionText(text)
	now := time.Now()

	var question entity.Question
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(insertQuestionSQL, text, authorID, now).Scan(&question).Error; err != nil {
			return err
		}
		if question.ID == 0 {
			// Вопрос уже есть в каталоге
			if err := tx.Where("text = ?", text).First(&question).Error; err != nil {
				return err
			}
		}
		return tx.Exec(upsertDesireSQL, authorID, question.ID, desired, now, now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create question for user #%d failed: %w", authorID, err)
	}
	return &question, nil
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByText возвращает вопрос по нормализованному тексту
func (r *QuestionRepo) GetByText(ctx context.Context, text string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).Where("text = ?", entity.NormalizeQuestionText(text)).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// SetDesiredAnswer записывает желаемый ответ пользователя (upsert)
func (r *QuestionRepo) SetDesiredAnswer(ctx context.Context, userID, questionID uint, desired bool) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Exec(upsertDesireSQL, userID, questionID, desired, now, now).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
		}
		return err
	}
	return nil
}

// DesiredAnswerOf возвращает желаемый ответ пользователя на вопрос
func (r *QuestionRepo) DesiredAnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error) {
	var desires []entity.DesiredAnswer
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Limit(1).
		Find(&desires).Error
	if err != nil {
		return entity.StanceAbsent, err
	}
	if len(desires) == 0 {
		return entity.StanceAbsent, nil
	}
	return entity.StanceOf(desires[0].Desired), nil
}

// DesiredAnswersFor возвращает желаемые ответы всех пользователей на вопрос
func (r *QuestionRepo) DesiredAnswersFor(ctx context.Context, questionID uint) (map[uint]bool, error) {
	var desires []entity.DesiredAnswer
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Find(&desires).Error; err != nil {
		return nil, err
	}
	result := make(map[uint]bool, len(desires))
	for _, d := range desires {
		result[d.UserID] = d.Desired
	}
	return result, nil
}

// QuestionsDesiredBy возвращает ID вопросов, на которые пользователь указал желаемый ответ
func (r *QuestionRepo) QuestionsDesiredBy(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.DesiredAnswer{}).
		Where("user_id = ?", userID).
		Order("question_id").
		Pluck("question_id", &ids).Error
	return ids, err
}

// EnsureSeeded добавляет отсутствующие вопросы стартового каталога от имени системного автора
func (r *QuestionRepo) EnsureSeeded(ctx context.Context, texts []string) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Устанавливаем кодировку UTF-8 внутри транзакции
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		now := time.Now()
		for _, text := range texts {
			text = entity.NormalizeQuestionText(text)
			if text == "" {
				continue
			}
			result := tx.Exec(`
				INSERT INTO questions (text, created_by, created_at)
				VALUES (?, ?, ?)
				ON CONFLICT (text) DO NOTHING`, text, entity.SystemAuthorID, now)
			if result.Error != nil {
				return result.Error
			}
			inserted += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed questions failed: %w", err)
	}
	if inserted > 0 {
		log.Printf("[QuestionRepo] Добавлено %d вопросов стартового каталога", inserted)
	}
	return inserted, nil
}

// ListStats возвращает каталог вопросов со статистикой ответов
func (r *QuestionRepo) ListStats(ctx context.Context) ([]entity.QuestionStats, error) {
	var stats []entity.QuestionStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT q.id, q.text, q.created_by, q.created_at,
			(SELECT COUNT(*) FROM ledger_entries l WHERE l.question_id = q.id AND l.answer IS NOT NULL) AS answer_count,
			(SELECT COUNT(*) FROM ledger_entries l WHERE l.question_id = q.id AND l.answer = TRUE) AS yes_count,
			(SELECT COUNT(*) FROM desired_answers d WHERE d.question_id = q.id) AS desire_count
		FROM questions q
		ORDER BY q.id`).Scan(&stats).Error
	return stats, err
}
