package handler

import (
	"context"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// MatchingService — операции ядра подбора пар, которые нужны транспорту
type MatchingService interface {
	Ask(ctx context.Context, userID uint, text string, desired bool) (*entity.Question, error)
	AskExisting(ctx context.Context, userID, questionID uint, desired bool) error
	Answer(ctx context.Context, userID, questionID uint, value bool) error
	Skip(ctx context.Context, userID, questionID uint) error
	GetQuestion(ctx context.Context, questionID uint) (*entity.Question, error)
	NextQuestion(ctx context.Context, userID uint) (*entity.Question, error)
	CheckMatch(ctx context.Context, userID uint) (*entity.MatchResult, error)
	Search(ctx context.Context, filters map[uint]bool) ([]uint, error)
	QuestionCatalog(ctx context.Context) ([]entity.QuestionStats, error)
}

// IdentityProvider — регистрация, вход и соответствие username -> ID
type IdentityProvider interface {
	Register(ctx context.Context, username, password string) (*entity.User, error)
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	Resolve(ctx context.Context, username string) (uint, error)
	UsernameOf(ctx context.Context, userID uint) (string, error)
	UsernamesOf(ctx context.Context, userIDs []uint) ([]string, error)
	IssueToken(user *entity.User) (string, error)
}
