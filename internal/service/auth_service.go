package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fogelran/people-match/internal/domain/entity"
	"github.com/fogelran/people-match/internal/domain/repository"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
	"github.com/fogelran/people-match/pkg/auth"
)

// AuthService предоставляет методы для регистрации, входа и поиска пользователей.
// Ядро подбора пар работает только с ID, соответствие username -> ID хранится здесь.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	validate   *validator.Validate
}

// credentials — входные данные регистрации и входа
type credentials struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=6,max=128"`
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		validate:   validator.New(),
	}, nil
}

func (s *AuthService) validateCredentials(username, password string) error {
	if err := s.validate.Struct(credentials{Username: username, Password: password}); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, describeValidationError(err))
	}
	return nil
}

// Register создает пользователя. ErrConflict, если имя уже занято.
func (s *AuthService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if err := s.validateCredentials(username, password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: user already exists", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &entity.User{Username: username, Password: password}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь %s (ID=%d)", user.Username, user.ID)
	return user, nil
}

// Authenticate проверяет имя и пароль. При любом несовпадении возвращает ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if err := s.validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя %s", username)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	return user, nil
}

// Resolve возвращает ID пользователя по имени. ErrNotFound для неизвестного имени.
func (s *AuthService) Resolve(ctx context.Context, username string) (uint, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// UsernameOf возвращает имя пользователя по ID
func (s *AuthService) UsernameOf(ctx context.Context, userID uint) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// UsernamesOf возвращает имена существующих пользователей из списка в порядке возрастания ID
func (s *AuthService) UsernamesOf(ctx context.Context, userIDs []uint) ([]string, error) {
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}

// IssueToken выпускает токен доступа для пользователя
func (s *AuthService) IssueToken(user *entity.User) (string, error) {
	return s.jwtService.GenerateToken(user)
}

// ParseToken проверяет токен доступа. Любая ошибка токена превращается в ErrUnauthorized.
func (s *AuthService) ParseToken(token string) (*auth.JWTCustomClaims, error) {
	claims, err := s.jwtService.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return claims, nil
}

// describeValidationError превращает ошибки validator в короткое сообщение для клиента
func describeValidationError(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}
