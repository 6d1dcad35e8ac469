package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fogelran/people-match/internal/domain/entity"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository поверх Store
type UserRepo struct {
	store *Store
}

// Create создает нового пользователя. Пароль хешируется так же, как в GORM-хуке BeforeSave.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := user.HashPassword(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.userByName[user.Username]; taken {
		return fmt.Errorf("%w: username %q already taken", apperrors.ErrConflict, user.Username)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now()

	stored := *user
	s.users[user.ID] = &stored
	s.userByName[user.Username] = user.ID
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	result := *user
	return &result, nil
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userByName[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	result := *s.users[id]
	return &result, nil
}

// GetByIDs возвращает найденных пользователей по списку ID
func (r *UserRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
