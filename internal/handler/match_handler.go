package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fogelran/people-match/internal/handler/dto"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// MatchHandler обрабатывает запрос лучшей пары
type MatchHandler struct {
	matching MatchingService
	identity IdentityProvider
}

// NewMatchHandler создает новый обработчик подбора пар
func NewMatchHandler(matching MatchingService, identity IdentityProvider) *MatchHandler {
	return &MatchHandler{
		matching: matching,
		identity: identity,
	}
}

// Check обрабатывает GET /api/match/check?username=
func (h *MatchHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := resolveActingUser(c, h.identity, c.Query("username"))
	if !ok {
		return
	}

	result, err := h.matching.CheckMatch(ctx, userID)
	if err != nil {
		handleError(c, "MatchHandler", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, dto.MatchResponse{})
		return
	}

	username, err := h.identity.UsernameOf(ctx, result.CandidateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Ядро принимает любые ID, у кандидата может не быть учётной записи
			log.Printf("[MatchHandler] Кандидат #%d для пользователя #%d не найден среди пользователей", result.CandidateID, userID)
			c.JSON(http.StatusOK, dto.MatchResponse{})
			return
		}
		handleError(c, "MatchHandler", err)
		return
	}

	score := result.Score
	c.JSON(http.StatusOK, dto.MatchResponse{Match: &username, Score: &score})
}
