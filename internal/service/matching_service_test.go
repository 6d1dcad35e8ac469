package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
	"github.com/fogelran/people-match/internal/repository/memory"
	"github.com/fogelran/people-match/internal/service/matching"
)

// ============================================================================
// Моки для MatchingService
// ============================================================================

// MockLedgerRepository реализует repository.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) RecordAnswer(ctx context.Context, userID, questionID uint, answer bool) error {
	args := m.Called(ctx, userID, questionID, answer)
	return args.Error(0)
}

func (m *MockLedgerRepository) RecordSkip(ctx context.Context, userID, questionID uint) error {
	args := m.Called(ctx, userID, questionID)
	return args.Error(0)
}

func (m *MockLedgerRepository) AnsweredQuestions(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockLedgerRepository) SkippedQuestions(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockLedgerRepository) AnswerOf(ctx context.Context, userID, questionID uint) (entity.Stance, error) {
	args := m.Called(ctx, userID, questionID)
	return args.Get(0).(entity.Stance), args.Error(1)
}

func (m *MockLedgerRepository) UsersWhoAnswered(ctx context.Context, questionID uint) (map[uint]bool, error) {
	args := m.Called(ctx, questionID)
	return args.Get(0).(map[uint]bool), args.Error(1)
}

func (m *MockLedgerRepository) AnswersOf(ctx context.Context, userID uint) (map[uint]bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(map[uint]bool), args.Error(1)
}

func (m *MockLedgerRepository) UsersMatchingAnswers(ctx context.Context, filters map[uint]bool) ([]uint, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]uint), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

// ============================================================================
// Хелперы
// ============================================================================

func testMatchingConfig() *matching.Config {
	cfg := matching.DefaultConfig()
	cfg.RetryInterval = time.Millisecond
	return cfg
}

func newTestMatchingService(t *testing.T, store *memory.Store) *MatchingService {
	t.Helper()
	svc, err := NewMatchingService(store.Questions(), store.Ledger(), store.Snapshots(), memory.NewCacheRepo(), testMatchingConfig())
	require.NoError(t, err)
	return svc
}

// ============================================================================
// Тесты
// ============================================================================

func TestNewMatchingService_RequiresRepositories(t *testing.T) {
	store := memory.NewStore()

	_, err := NewMatchingService(nil, store.Ledger(), store.Snapshots(), nil, nil)
	assert.Error(t, err)
	_, err = NewMatchingService(store.Questions(), nil, store.Snapshots(), nil, nil)
	assert.Error(t, err)
	_, err = NewMatchingService(store.Questions(), store.Ledger(), nil, nil, nil)
	assert.Error(t, err)

	svc, err := NewMatchingService(store.Questions(), store.Ledger(), store.Snapshots(), nil, nil)
	require.NoError(t, err, "Кеш и конфигурация необязательны")
	assert.Equal(t, matching.DefaultConfig().MinEvidence, svc.config.MinEvidence)
}

func TestMatchingService_Ask_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestMatchingService(t, memory.NewStore())

	_, err := svc.Ask(ctx, 1, "   ", true)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Ask(ctx, 1, strings.Repeat("я", entity.MaxQuestionTextLength+1), true)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	q, err := svc.Ask(ctx, 1, strings.Repeat("я", entity.MaxQuestionTextLength), true)
	require.NoError(t, err, "Длина считается в символах, а не в байтах")
	assert.NotZero(t, q.ID)
}

func TestMatchingService_AskCreatesAuthorDesire(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "  Do you like hiking?  ", false)
	require.NoError(t, err)
	assert.Equal(t, "Do you like hiking?", q.Text)
	assert.Equal(t, uint(1), q.CreatedBy)

	desires, err := store.Questions().DesiredAnswersFor(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: false}, desires, "ask создаёт ровно один желаемый ответ автора")
}

func TestMatchingService_AskExisting_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "Q", true)
	require.NoError(t, err)

	require.NoError(t, svc.AskExisting(ctx, 2, q.ID, true))
	require.NoError(t, svc.AskExisting(ctx, 2, q.ID, true))

	desires, err := store.Questions().DesiredAnswersFor(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: true, 2: true}, desires)

	err = svc.AskExisting(ctx, 2, 999, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMatchingService_AnswerAndSkip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "Q", true)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Answer(ctx, 2, 999, true), apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.Skip(ctx, 2, 999), apperrors.ErrNotFound)

	require.NoError(t, svc.Answer(ctx, 2, q.ID, true))
	require.NoError(t, svc.Skip(ctx, 2, q.ID))

	stance, err := store.Ledger().AnswerOf(ctx, 2, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StanceYes, stance, "Пропуск не затирает ответ")
}

func TestMatchingService_NextQuestion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	inserted, err := svc.SeedQuestions(ctx, []string{"A?", "B?"})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	first, err := svc.NextQuestion(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NoError(t, svc.Skip(ctx, 1, first.ID))

	second, err := svc.NextQuestion(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	require.NoError(t, svc.Answer(ctx, 1, second.ID, false))

	none, err := svc.NextQuestion(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMatchingService_CheckMatch_Scenarios(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	result, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, result, "Без данных кандидата нет")

	q, err := svc.Ask(ctx, 1, "Do you like hiking?", true)
	require.NoError(t, err)
	require.NoError(t, svc.Answer(ctx, 2, q.ID, true))

	result, err = svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result, "Закешированное отсутствие пары должно сброситься после изменений")
	assert.Equal(t, uint(2), result.CandidateID)
	assert.Equal(t, 1.0, result.Score)
}

func TestMatchingService_CheckMatch_UsesCacheUntilMutation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "Q", true)
	require.NoError(t, err)
	require.NoError(t, svc.Answer(ctx, 2, q.ID, true))

	first, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1.0, first.Score)

	// Запись в обход сервиса не меняет версию: результат берётся из кеша
	require.NoError(t, store.Ledger().RecordAnswer(ctx, 2, q.ID, false))
	cached, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cached.Score)

	// Любое изменение через сервис сбрасывает кеш
	require.NoError(t, svc.Answer(ctx, 2, q.ID, false))
	fresh, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, 0.0, fresh.Score)
}

func TestMatchingService_CheckMatch_CacheUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := new(MockCacheRepository)
	cache.On("Get", ctx, matchVersionKey).Return("", errors.New("redis down"))

	svc, err := NewMatchingService(store.Questions(), store.Ledger(), store.Snapshots(), cache, testMatchingConfig())
	require.NoError(t, err)

	result, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err, "Недоступный кеш не должен ломать checkMatch")
	assert.Nil(t, result)

	cache.AssertExpectations(t)
	cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchingService_CheckMatch_CachesEmptyResult(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := new(MockCacheRepository)
	key := matchCacheKey("3", 1)

	cache.On("Get", ctx, matchVersionKey).Return("3", nil)
	cache.On("GetJSON", ctx, key, mock.Anything).Return(apperrors.ErrNotFound)
	cache.On("SetJSON", ctx, key, cachedMatch{Found: false}, testMatchingConfig().MatchCacheTTL).Return(nil)

	svc, err := NewMatchingService(store.Questions(), store.Ledger(), store.Snapshots(), cache, testMatchingConfig())
	require.NoError(t, err)

	result, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, result)
	cache.AssertExpectations(t)
}

func TestMatchingService_RetriesStorageErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := new(MockLedgerRepository)
	ledger.On("RecordAnswer", ctx, uint(1), uint(5), true).Return(errors.New("connection reset")).Twice()
	ledger.On("RecordAnswer", ctx, uint(1), uint(5), true).Return(nil).Once()

	svc, err := NewMatchingService(store.Questions(), ledger, store.Snapshots(), nil, testMatchingConfig())
	require.NoError(t, err)

	require.NoError(t, svc.Answer(ctx, 1, 5, true))
	ledger.AssertNumberOfCalls(t, "RecordAnswer", 3)
}

func TestMatchingService_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := new(MockLedgerRepository)
	ledger.On("RecordSkip", ctx, uint(1), uint(5)).Return(errors.New("connection reset"))

	cfg := testMatchingConfig()
	cfg.MaxRetries = 2
	svc, err := NewMatchingService(store.Questions(), ledger, store.Snapshots(), nil, cfg)
	require.NoError(t, err)

	err = svc.Skip(ctx, 1, 5)
	require.Error(t, err, "Сбой записи не должен проглатываться")
	assert.False(t, apperrors.IsClientError(err))
	ledger.AssertNumberOfCalls(t, "RecordSkip", 3)
}

func TestMatchingService_DoesNotRetryClientErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := new(MockLedgerRepository)
	ledger.On("RecordAnswer", ctx, uint(1), uint(5), false).Return(apperrors.ErrNotFound)

	svc, err := NewMatchingService(store.Questions(), ledger, store.Snapshots(), nil, testMatchingConfig())
	require.NoError(t, err)

	err = svc.Answer(ctx, 1, 5, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	ledger.AssertNumberOfCalls(t, "RecordAnswer", 1)
}

func TestMatchingService_Search(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q1, err := svc.Ask(ctx, 9, "Q1", true)
	require.NoError(t, err)
	q2, err := svc.Ask(ctx, 9, "Q2", true)
	require.NoError(t, err)

	require.NoError(t, svc.Answer(ctx, 1, q1.ID, true))
	require.NoError(t, svc.Answer(ctx, 1, q2.ID, true))
	require.NoError(t, svc.Answer(ctx, 2, q1.ID, true))
	require.NoError(t, svc.Answer(ctx, 2, q2.ID, false))

	ids, err := svc.Search(ctx, map[uint]bool{q1.ID: true, q2.ID: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)

	_, err = svc.Search(ctx, map[uint]bool{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMatchingService_QuestionCatalog(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "Q1", true)
	require.NoError(t, err)
	require.NoError(t, svc.Answer(ctx, 2, q.ID, true))

	stats, err := svc.QuestionCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].AnswerCount)
	assert.Equal(t, int64(1), stats[0].DesireCount)

	got, err := svc.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1", got.Text)

	_, err = svc.GetQuestion(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMatchingService_ConcurrentAnswerAndSkip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestMatchingService(t, store)

	q, err := svc.Ask(ctx, 1, "Do you like hiking?", true)
	require.NoError(t, err)

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			assert.NoError(t, svc.Answer(ctx, 2, q.ID, true))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			assert.NoError(t, svc.Skip(ctx, 2, q.ID))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			result, err := svc.CheckMatch(ctx, 1)
			if assert.NoError(t, err) && result != nil {
				assert.Equal(t, uint(2), result.CandidateID)
				assert.Equal(t, 1.0, result.Score, "Пропуск не должен влиять на оценку")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			next, err := svc.NextQuestion(ctx, 2)
			if assert.NoError(t, err) && next != nil {
				assert.Equal(t, q.ID, next.ID)
			}
		}
	}()
	wg.Wait()

	stance, err := store.Ledger().AnswerOf(ctx, 2, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StanceYes, stance, "Ответ не должен затираться пропуском")

	skipped, err := store.Ledger().SkippedQuestions(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, skipped, "Отвеченный вопрос не считается пропущенным")

	next, err := svc.NextQuestion(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, next, "Отвеченный вопрос не предлагается повторно")

	result, err := svc.CheckMatch(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, uint(2), result.CandidateID)
	assert.Equal(t, 1.0, result.Score)
}
