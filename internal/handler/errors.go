package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fogelran/people-match/internal/middleware"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// handleError переводит ошибку сервиса в HTTP-ответ
func handleError(c *gin.Context, component string, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in %s: %v", component, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindingError отвечает 400 на некорректное тело запроса
func bindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
}

// resolveActingUser проверяет, что запрос сделан от имени владельца токена,
// и возвращает ID пользователя. При ошибке ответ уже записан.
func resolveActingUser(c *gin.Context, identity IdentityProvider, username string) (uint, bool) {
	username = strings.TrimSpace(username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return 0, false
	}
	if subject := c.GetString(middleware.ContextUsername); subject != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Username does not match the access token"})
		return 0, false
	}

	userID, err := identity.Resolve(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return 0, false
		}
		handleError(c, "IdentityProvider", err)
		return 0, false
	}
	return userID, true
}
