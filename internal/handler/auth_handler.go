package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fogelran/people-match/internal/handler/dto"
)

// AuthHandler обрабатывает запросы регистрации и входа
type AuthHandler struct {
	identity IdentityProvider
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(identity IdentityProvider) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Register обрабатывает POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	user, err := h.identity.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	token, err := h.identity.IssueToken(user)
	if err != nil {
		log.Printf("[AuthHandler] Ошибка выпуска токена для пользователя ID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue access token"})
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		ID:          user.ID,
		Username:    user.Username,
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// Login обрабатывает POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	user, err := h.identity.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	token, err := h.identity.IssueToken(user)
	if err != nil {
		log.Printf("[AuthHandler] Ошибка выпуска токена для пользователя ID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue access token"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Username:    user.Username,
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
