package repository

import (
	"context"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// SnapshotRepository предоставляет согласованные срезы данных для селектора и скорера.
// Реализации только читают данные.
type SnapshotRepository interface {
	// ListCandidates возвращает вопросы, которые пользователь ещё не отвечал и не пропускал
	ListCandidates(ctx context.Context, userID uint) ([]entity.QuestionCandidate, error)
	// LoadScoringSnapshot читает всё, что нужно для подсчёта совместимости пользователя,
	// в рамках одного согласованного чтения.
	LoadScoringSnapshot(ctx context.Context, userID uint) (*entity.ScoringSnapshot, error)
}
