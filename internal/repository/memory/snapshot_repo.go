package memory

import (
	"context"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// SnapshotRepo реализует repository.SnapshotRepository поверх Store.
// Оба метода читают хранилище под одной блокировкой чтения.
type SnapshotRepo struct {
	store *Store
}

// ListCandidates возвращает вопросы, которые пользователь не отвечал и не пропускал
func (r *SnapshotRepo) ListCandidates(ctx context.Context, userID uint) ([]entity.QuestionCandidate, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	answerCounts := make(map[uint]int64)
	for key, entry := range s.ledger {
		if entry.IsAnswered() {
			answerCounts[key.questionID]++
		}
	}
	desiredByOthers := make(map[uint]bool)
	for key := range s.desires {
		if key.userID != userID {
			desiredByOthers[key.questionID] = true
		}
	}

	candidates := make([]entity.QuestionCandidate, 0, len(s.questions))
	for id, question := range s.questions {
		if entry, ok := s.ledger[pairKey{userID: userID, questionID: id}]; ok && (entry.IsAnswered() || entry.IsSkipped()) {
			continue
		}
		candidates = append(candidates, entity.QuestionCandidate{
			Question:        *question,
			DesiredByOthers: desiredByOthers[id],
			AnswerCount:     answerCounts[id],
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Question.ID < candidates[j].Question.ID
	})
	return candidates, nil
}

// LoadScoringSnapshot собирает срез для подсчёта совместимости пользователя
func (r *SnapshotRepo) LoadScoringSnapshot(ctx context.Context, userID uint) (*entity.ScoringSnapshot, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := entity.NewScoringSnapshot(userID)
	for key, desire := range s.desires {
		if key.userID == userID {
			snap.Desires[key.questionID] = desire.Desired
		}
	}
	snap.Answers = s.answersOfLocked(userID)

	for key, entry := range s.ledger {
		if key.userID == userID {
			continue
		}
		if _, desired := snap.Desires[key.questionID]; !desired {
			continue
		}
		if value, ok := entry.Stance().Bool(); ok {
			snap.AddOtherAnswer(key.userID, key.questionID, value)
		}
	}
	for key, desire := range s.desires {
		if key.userID == userID {
			continue
		}
		if _, answered := snap.Answers[key.questionID]; answered {
			snap.AddOtherDesire(key.userID, key.questionID, desire.Desired)
		}
	}
	return snap, nil
}
