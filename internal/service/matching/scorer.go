package matching

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// MatchScorer считает совместимость пользователя с остальными и выбирает лучшего кандидата.
// Скорер только читает данные.
type MatchScorer struct {
	deps *Dependencies
}

// NewMatchScorer создаёт новый скорер
func NewMatchScorer(deps *Dependencies) *MatchScorer {
	return &MatchScorer{deps: deps}
}

// BestMatch возвращает лучшего кандидата для пользователя или nil, если кандидатов нет.
// Все данные читаются одним согласованным срезом.
func (s *MatchScorer) BestMatch(ctx context.Context, userID uint) (*entity.MatchResult, error) {
	snap, err := s.deps.SnapshotRepo.LoadScoringSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring snapshot: %w", err)
	}

	results := ScoreCandidates(snap, s.deps.Config)
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	log.Printf("[MatchScorer] User #%d: candidates=%d, best=#%d score=%.2f evidence=%d",
		userID, len(results), best.CandidateID, best.Score, best.Evidence)
	return &best, nil
}

// ScoreCandidates считает score(U, V) для каждого кандидата V из среза и возвращает
// результаты от лучшего к худшему.
//
// Набор S для пары: вопросы q, где U указал желаемый ответ и V ответил, либо
// (в симметричном режиме) V указал желаемый ответ и U ответил. Вопрос даёт совпадение,
// если ответ равен желаемому; когда для q применимы оба направления, совпадение
// засчитывается только при совпадении в обоих. score = matches / |S|.
// Кандидаты с |S| < MinEvidence не попадают в результат.
func ScoreCandidates(snap *entity.ScoringSnapshot, cfg *Config) []entity.MatchResult {
	symmetric := cfg == nil || cfg.Symmetric
	threshold := cfg.minEvidence()

	candidateIDs := make(map[uint]struct{}, len(snap.OthersAnswers))
	for id := range snap.OthersAnswers {
		candidateIDs[id] = struct{}{}
	}
	if symmetric {
		for id := range snap.OthersDesires {
			candidateIDs[id] = struct{}{}
		}
	}
	delete(candidateIDs, snap.UserID)

	results := make([]entity.MatchResult, 0, len(candidateIDs))
	for candidateID := range candidateIDs {
		evidence, matches := scorePair(snap, candidateID, symmetric)
		if evidence == 0 || evidence < threshold {
			continue
		}
		results = append(results, entity.MatchResult{
			CandidateID: candidateID,
			Score:       float64(matches) / float64(evidence),
			Evidence:    evidence,
			Matches:     matches,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return resultLess(&results[i], &results[j])
	})
	return results
}

// scorePair возвращает |S| и число совпадений для пары (U, V)
func scorePair(snap *entity.ScoringSnapshot, candidateID uint, symmetric bool) (evidence, matches int) {
	theirAnswers := snap.OthersAnswers[candidateID]
	var theirDesires map[uint]bool
	if symmetric {
		theirDesires = snap.OthersDesires[candidateID]
	}

	// verdicts: questionID -> совпали ли все применимые направления
	verdicts := make(map[uint]bool)
	for questionID, desired := range snap.Desires {
		answer, ok := theirAnswers[questionID]
		if !ok {
			continue
		}
		verdicts[questionID] = answer == desired
	}
	for questionID, desired := range theirDesires {
		answer, ok := snap.Answers[questionID]
		if !ok {
			continue
		}
		agreed := answer == desired
		if previous, seen := verdicts[questionID]; seen {
			agreed = agreed && previous
		}
		verdicts[questionID] = agreed
	}

	for _, agreed := range verdicts {
		if agreed {
			matches++
		}
	}
	return len(verdicts), matches
}

// resultLess: выше score, затем больше |S|, затем меньший ID.
// Доли сравниваются перекрёстным умножением.
func resultLess(a, b *entity.MatchResult) bool {
	left := a.Matches * b.Evidence
	right := b.Matches * a.Evidence
	if left != right {
		return left > right
	}
	if a.Evidence != b.Evidence {
		return a.Evidence > b.Evidence
	}
	return a.CandidateID < b.CandidateID
}
