package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// SnapshotRepo реализует repository.SnapshotRepository.
// Срез для скорера читается в одной read-only транзакции REPEATABLE READ,
// поэтому все запросы видят одно и то же состояние журнала и каталога.
type SnapshotRepo struct {
	db *gorm.DB
}

// NewSnapshotRepo создает новый репозиторий срезов
func NewSnapshotRepo(db *gorm.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

type candidateRow struct {
	ID              uint
	Text            string
	CreatedBy       uint
	CreatedAt       time.Time
	DesiredByOthers bool
	AnswerCount     int64
}

// ListCandidates возвращает вопросы, которые пользователь не отвечал и не пропускал,
// в порядке приоритета селектора
func (r *SnapshotRepo) ListCandidates(ctx context.Context, userID uint) ([]entity.QuestionCandidate, error) {
	var rows []candidateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT q.id, q.text, q.created_by, q.created_at,
			EXISTS (
				SELECT 1 FROM desired_answers d
				WHERE d.question_id = q.id AND d.user_id <> ?
			) AS desired_by_others,
			(SELECT COUNT(*) FROM ledger_entries a
				WHERE a.question_id = q.id AND a.answer IS NOT NULL) AS answer_count
		FROM questions q
		WHERE NOT EXISTS (
			SELECT 1 FROM ledger_entries l
			WHERE l.user_id = ? AND l.question_id = q.id
			  AND (l.answer IS NOT NULL OR l.skipped)
		)
		ORDER BY desired_by_others DESC, answer_count ASC, q.created_at ASC, q.id ASC
	`, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates for user #%d failed: %w", userID, err)
	}

	candidates := make([]entity.QuestionCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, entity.QuestionCandidate{
			Question: entity.Question{
				ID:        row.ID,
				Text:      row.Text,
				CreatedBy: row.CreatedBy,
				CreatedAt: row.CreatedAt,
			},
			DesiredByOthers: row.DesiredByOthers,
			AnswerCount:     row.AnswerCount,
		})
	}
	return candidates, nil
}

type pairRow struct {
	UserID     uint
	QuestionID uint
	Value      bool
}

// LoadScoringSnapshot читает желания и ответы пользователя и пересекающиеся с ними
// ответы и желания остальных пользователей
func (r *SnapshotRepo) LoadScoringSnapshot(ctx context.Context, userID uint) (*entity.ScoringSnapshot, error) {
	snap := entity.NewScoringSnapshot(userID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownDesires []pairRow
		if err := tx.Raw(`
			SELECT user_id, question_id, desired AS value
			FROM desired_answers WHERE user_id = ?`, userID).Scan(&ownDesires).Error; err != nil {
			return err
		}
		for _, row := range ownDesires {
			snap.Desires[row.QuestionID] = row.Value
		}

		var ownAnswers []pairRow
		if err := tx.Raw(`
			SELECT user_id, question_id, answer AS value
			FROM ledger_entries WHERE user_id = ? AND answer IS NOT NULL`, userID).Scan(&ownAnswers).Error; err != nil {
			return err
		}
		for _, row := range ownAnswers {
			snap.Answers[row.QuestionID] = row.Value
		}

		// Ответы других на вопросы, где у пользователя есть желаемый ответ
		var othersAnswers []pairRow
		if err := tx.Raw(`
			SELECT l.user_id, l.question_id, l.answer AS value
			FROM ledger_entries l
			JOIN desired_answers d ON d.question_id = l.question_id AND d.user_id = ?
			WHERE l.user_id <> ? AND l.answer IS NOT NULL`, userID, userID).Scan(&othersAnswers).Error; err != nil {
			return err
		}
		for _, row := range othersAnswers {
			snap.AddOtherAnswer(row.UserID, row.QuestionID, row.Value)
		}

		// Желания других на вопросы, на которые пользователь ответил
		var othersDesires []pairRow
		if err := tx.Raw(`
			SELECT d.user_id, d.question_id, d.desired AS value
			FROM desired_answers d
			JOIN ledger_entries l ON l.question_id = d.question_id AND l.user_id = ? AND l.answer IS NOT NULL
			WHERE d.user_id <> ?`, userID, userID).Scan(&othersDesires).Error; err != nil {
			return err
		}
		for _, row := range othersDesires {
			snap.AddOtherDesire(row.UserID, row.QuestionID, row.Value)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load scoring snapshot for user #%d failed: %w", userID, err)
	}
	return snap, nil
}
