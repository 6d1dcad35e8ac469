package memory

import (
	"sync"
	"time"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// pairKey — ключ записи по паре (пользователь, вопрос)
type pairKey struct {
	userID     uint
	questionID uint
}

// Store — хранилище каталога, журнала ответов и пользователей в памяти процесса.
// Все изменения выполняются под одной блокировкой записи, чтение среза для скорера
// выполняется под блокировкой чтения и видит согласованное состояние.
type Store struct {
	mu sync.RWMutex

	questions      map[uint]*entity.Question
	questionByText map[string]uint
	nextQuestionID uint

	desires map[pairKey]*entity.DesiredAnswer
	ledger  map[pairKey]*entity.LedgerEntry

	users      map[uint]*entity.User
	userByName map[string]uint
	nextUserID uint

	now func() time.Time
}

// Option настраивает Store
type Option func(*Store)

// WithClock подменяет источник времени (используется в тестах)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore создает пустое хранилище
func NewStore(opts ...Option) *Store {
	s := &Store{
		questions:      make(map[uint]*entity.Question),
		questionByText: make(map[string]uint),
		desires:        make(map[pairKey]*entity.DesiredAnswer),
		ledger:         make(map[pairKey]*entity.LedgerEntry),
		users:          make(map[uint]*entity.User),
		userByName:     make(map[string]uint),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questions возвращает репозиторий вопросов поверх хранилища
func (s *Store) Questions() *QuestionRepo {
	return &QuestionRepo{store: s}
}

// Ledger возвращает репозиторий журнала ответов поверх хранилища
func (s *Store) Ledger() *LedgerRepo {
	return &LedgerRepo{store: s}
}

// Snapshots возвращает репозиторий срезов поверх хранилища
func (s *Store) Snapshots() *SnapshotRepo {
	return &SnapshotRepo{store: s}
}

// Users возвращает репозиторий пользователей поверх хранилища
func (s *Store) Users() *UserRepo {
	return &UserRepo{store: s}
}

// insertQuestionLocked добавляет вопрос или возвращает существующий с тем же текстом.
// Вызывается под s.mu.
func (s *Store) insertQuestionLocked(text string, authorID uint) (*entity.Question, bool) {
	if id, ok := s.questionByText[text]; ok {
		return s.questions[id], false
	}
	s.nextQuestionID++
	question := &entity.Question{
		ID:        s.nextQuestionID,
		Text:      text,
		CreatedBy: authorID,
		CreatedAt: s.now(),
	}
	s.questions[question.ID] = question
	s.questionByText[text] = question.ID
	return question, true
}

// setDesireLocked записывает желаемый ответ. Вызывается под s.mu.
func (s *Store) setDesireLocked(userID, questionID uint, desired bool) {
	key := pairKey{userID: userID, questionID: questionID}
	now := s.now()
	if existing, ok := s.desires[key]; ok {
		existing.Desired = desired
		existing.UpdatedAt = now
		return
	}
	s.desires[key] = &entity.DesiredAnswer{
		UserID:     userID,
		QuestionID: questionID,
		Desired:    desired,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// entryLocked возвращает строку журнала, создавая её при необходимости. Вызывается под s.mu.
func (s *Store) entryLocked(userID, questionID uint) *entity.LedgerEntry {
	key := pairKey{userID: userID, questionID: questionID}
	entry, ok := s.ledger[key]
	if !ok {
		entry = &entity.LedgerEntry{UserID: userID, QuestionID: questionID}
		s.ledger[key] = entry
	}
	return entry
}
