package repository

import (
	"context"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	// Create создаёт пользователя. ErrConflict, если имя уже занято.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// GetByIDs возвращает найденных пользователей в порядке возрастания ID
	GetByIDs(ctx context.Context, ids []uint) ([]entity.User, error)
}
