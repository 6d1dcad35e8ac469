package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fogelran/people-match/internal/domain/entity"
	"github.com/fogelran/people-match/internal/domain/repository"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
	"github.com/fogelran/people-match/internal/service/matching"
)

const (
	matchVersionKey = "match:version"
)

// matchCacheKey возвращает ключ закешированного результата checkMatch.
// Версия меняется при каждом изменении журнала или каталога, поэтому старые записи просто перестают читаться.
func matchCacheKey(version string, userID uint) string {
	return fmt.Sprintf("match:v%s:user:%d", version, userID)
}

// cachedMatch — результат checkMatch в кеше. Found=false тоже кешируется.
type cachedMatch struct {
	Found  bool               `json:"found"`
	Result entity.MatchResult `json:"result"`
}

// askCommand — входные данные операции ask
type askCommand struct {
	Text string `validate:"required,max=200"`
}

// MatchingService оркестрирует каталог вопросов, журнал ответов, селектор и скорер.
// Это единственная точка входа транспорта в ядро подбора пар.
type MatchingService struct {
	questionRepo repository.QuestionRepository
	ledgerRepo   repository.LedgerRepository
	cacheRepo    repository.CacheRepository
	selector     *matching.QuestionSelector
	scorer       *matching.MatchScorer
	config       *matching.Config
	validate     *validator.Validate
}

// NewMatchingService создает новый сервис подбора пар и возвращает ошибку при проблемах.
// cacheRepo может быть nil: тогда checkMatch всегда считается заново.
func NewMatchingService(
	questionRepo repository.QuestionRepository,
	ledgerRepo repository.LedgerRepository,
	snapshotRepo repository.SnapshotRepository,
	cacheRepo repository.CacheRepository,
	config *matching.Config,
) (*MatchingService, error) {
	if questionRepo == nil {
		return nil, fmt.Errorf("QuestionRepository is required for MatchingService")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("LedgerRepository is required for MatchingService")
	}
	if snapshotRepo == nil {
		return nil, fmt.Errorf("SnapshotRepository is required for MatchingService")
	}
	if config == nil {
		config = matching.DefaultConfig()
	}

	deps := &matching.Dependencies{SnapshotRepo: snapshotRepo, Config: config}
	return &MatchingService{
		questionRepo: questionRepo,
		ledgerRepo:   ledgerRepo,
		cacheRepo:    cacheRepo,
		selector:     matching.NewQuestionSelector(deps),
		scorer:       matching.NewMatchScorer(deps),
		config:       config,
		validate:     validator.New(),
	}, nil
}

// Ask создает вопрос (или переиспользует существующий с тем же текстом)
// и записывает желаемый ответ автора
func (s *MatchingService) Ask(ctx context.Context, userID uint, text string, desired bool) (*entity.Question, error) {
	text = entity.NormalizeQuestionText(text)
	if err := s.validate.Struct(askCommand{Text: text}); err != nil {
		return nil, fmt.Errorf("%w: question text must be 1..%d characters", apperrors.ErrValidation, entity.MaxQuestionTextLength)
	}

	var question *entity.Question
	err := s.withRetry(ctx, "ask", func() error {
		var err error
		question, err = s.questionRepo.CreateWithDesire(ctx, text, userID, desired)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateMatches(ctx)
	log.Printf("[MatchingService] Пользователь #%d задал вопрос #%d (desired=%t)", userID, question.ID, desired)
	return question, nil
}

// AskExisting записывает желаемый ответ пользователя на существующий вопрос
func (s *MatchingService) AskExisting(ctx context.Context, userID, questionID uint, desired bool) error {
	err := s.withRetry(ctx, "ask-existing", func() error {
		return s.questionRepo.SetDesiredAnswer(ctx, userID, questionID, desired)
	})
	if err != nil {
		return err
	}
	s.invalidateMatches(ctx)
	return nil
}

// Answer записывает ответ пользователя на вопрос
func (s *MatchingService) Answer(ctx context.Context, userID, questionID uint, value bool) error {
	err := s.withRetry(ctx, "answer", func() error {
		return s.ledgerRepo.RecordAnswer(ctx, userID, questionID, value)
	})
	if err != nil {
		return err
	}
	s.invalidateMatches(ctx)
	return nil
}

// Skip помечает вопрос пропущенным. Уже данный ответ не затирается.
func (s *MatchingService) Skip(ctx context.Context, userID, questionID uint) error {
	err := s.withRetry(ctx, "skip", func() error {
		return s.ledgerRepo.RecordSkip(ctx, userID, questionID)
	})
	if err != nil {
		return err
	}
	s.invalidateMatches(ctx)
	return nil
}

// GetQuestion возвращает вопрос по ID
func (s *MatchingService) GetQuestion(ctx context.Context, questionID uint) (*entity.Question, error) {
	var question *entity.Question
	err := s.withRetry(ctx, "get-question", func() error {
		var err error
		question, err = s.questionRepo.GetByID(ctx, questionID)
		return err
	})
	return question, err
}

// NextQuestion возвращает следующий вопрос для пользователя или nil, если вопросов не осталось
func (s *MatchingService) NextQuestion(ctx context.Context, userID uint) (*entity.Question, error) {
	var question *entity.Question
	err := s.withRetry(ctx, "next-question", func() error {
		var err error
		question, err = s.selector.NextQuestion(ctx, userID)
		return err
	})
	return question, err
}

// CheckMatch возвращает лучшего кандидата для пользователя или nil.
// Результат читается из кеша, если он посчитан для текущей версии данных.
func (s *MatchingService) CheckMatch(ctx context.Context, userID uint) (*entity.MatchResult, error) {
	version, cacheable := s.matchVersion(ctx)
	key := matchCacheKey(version, userID)

	if cacheable {
		var cached cachedMatch
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		if err == nil {
			if !cached.Found {
				return nil, nil
			}
			result := cached.Result
			return &result, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[MatchingService] WARNING: Ошибка чтения кеша %s: %v", key, err)
		}
	}

	var result *entity.MatchResult
	err := s.withRetry(ctx, "check-match", func() error {
		var err error
		result, err = s.scorer.BestMatch(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		entry := cachedMatch{Found: result != nil}
		if result != nil {
			entry.Result = *result
		}
		if err := s.cacheRepo.SetJSON(ctx, key, entry, s.config.MatchCacheTTL); err != nil {
			log.Printf("[MatchingService] WARNING: Ошибка записи кеша %s: %v", key, err)
		}
	}
	return result, nil
}

// Search возвращает пользователей, чьи ответы совпадают со всеми фильтрами (questionID -> answer)
func (s *MatchingService) Search(ctx context.Context, filters map[uint]bool) ([]uint, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: at least one filter is required", apperrors.ErrValidation)
	}
	var ids []uint
	err := s.withRetry(ctx, "search", func() error {
		var err error
		ids, err = s.ledgerRepo.UsersMatchingAnswers(ctx, filters)
		return err
	})
	return ids, err
}

// QuestionCatalog возвращает весь каталог вопросов со статистикой ответов
func (s *MatchingService) QuestionCatalog(ctx context.Context) ([]entity.QuestionStats, error) {
	var stats []entity.QuestionStats
	err := s.withRetry(ctx, "question-catalog", func() error {
		var err error
		stats, err = s.questionRepo.ListStats(ctx)
		return err
	})
	return stats, err
}

// SeedQuestions добавляет отсутствующие вопросы стартового каталога
func (s *MatchingService) SeedQuestions(ctx context.Context, texts []string) (int, error) {
	var inserted int
	err := s.withRetry(ctx, "seed", func() error {
		var err error
		inserted, err = s.questionRepo.EnsureSeeded(ctx, texts)
		return err
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		s.invalidateMatches(ctx)
	}
	return inserted, nil
}

// withRetry выполняет операцию хранилища, повторяя её при сбоях.
// Ошибки клиента (NotFound, Validation, Conflict и т.п.) не повторяются.
func (s *MatchingService) withRetry(ctx context.Context, op string, fn func() error) error {
	retries := s.config.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Printf("[MatchingService] %s: повтор %d/%d после ошибки: %v", op, attempt, retries, err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", op, ctx.Err())
			case <-time.After(s.config.RetryInterval):
			}
		}

		err = fn()
		if err == nil || apperrors.IsClientError(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	log.Printf("[MatchingService] ERROR: %s завершилась ошибкой: %v", op, err)
	return fmt.Errorf("%s failed: %w", op, err)
}

// matchVersion возвращает текущую версию данных для ключей кеша.
// false — кеш недоступен и результат не нужно ни читать, ни записывать.
func (s *MatchingService) matchVersion(ctx context.Context) (string, bool) {
	if s.cacheRepo == nil {
		return "", false
	}
	version, err := s.cacheRepo.Get(ctx, matchVersionKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "0", true
		}
		log.Printf("[MatchingService] WARNING: Ошибка чтения версии кеша: %v", err)
		return "", false
	}
	if _, err := strconv.ParseInt(version, 10, 64); err != nil {
		log.Printf("[MatchingService] WARNING: Некорректная версия кеша %q", version)
		return "", false
	}
	return version, true
}

// invalidateMatches делает недействительными все закешированные результаты checkMatch
func (s *MatchingService) invalidateMatches(ctx context.Context) {
	if s.cacheRepo == nil {
		return
	}
	if _, err := s.cacheRepo.Increment(ctx, matchVersionKey); err != nil {
		log.Printf("[MatchingService] WARNING: Не удалось сменить версию кеша: %v", err)
	}
}
