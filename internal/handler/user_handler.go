package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fogelran/people-match/internal/handler/dto"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

// UserHandler обрабатывает поиск пользователей по ответам
type UserHandler struct {
	matching MatchingService
	identity IdentityProvider
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(matching MatchingService, identity IdentityProvider) *UserHandler {
	return &UserHandler{
		matching: matching,
		identity: identity,
	}
}

// Search обрабатывает POST /api/users/search
func (h *UserHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	filters := make(map[uint]bool, len(req.Filters))
	for rawID, answer := range req.Filters {
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil || id == 0 {
			handleError(c, "UserHandler", fmt.Errorf("%w: invalid question id %q", apperrors.ErrValidation, rawID))
			return
		}
		filters[uint(id)] = answer
	}

	ctx := c.Request.Context()
	ids, err := h.matching.Search(ctx, filters)
	if err != nil {
		handleError(c, "UserHandler", err)
		return
	}
	names, err := h.identity.UsernamesOf(ctx, ids)
	if err != nil {
		handleError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Users: names})
}
