package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fogelran/people-match/internal/handler/dto"
)

// QuestionHandler обрабатывает запросы, связанные с вопросами
type QuestionHandler struct {
	matching MatchingService
	identity IdentityProvider
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(matching MatchingService, identity IdentityProvider) *QuestionHandler {
	return &QuestionHandler{
		matching: matching,
		identity: identity,
	}
}

// respondNextQuestion отвечает следующим вопросом пользователя (или null)
func (h *QuestionHandler) respondNextQuestion(c *gin.Context, userID uint) {
	question, err := h.matching.NextQuestion(c.Request.Context(), userID)
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewNextQuestionResponse(question))
}

// NextQuestion обрабатывает GET /api/questions/next?username=
func (h *QuestionHandler) NextQuestion(c *gin.Context) {
	userID, ok := resolveActingUser(c, h.identity, c.Query("username"))
	if !ok {
		return
	}
	h.respondNextQuestion(c, userID)
}

// Answer обрабатывает POST /api/questions/answer и возвращает следующий вопрос
func (h *QuestionHandler) Answer(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	userID, ok := resolveActingUser(c, h.identity, req.Username)
	if !ok {
		return
	}

	if err := h.matching.Answer(c.Request.Context(), userID, req.QuestionID, *req.Answer); err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	h.respondNextQuestion(c, userID)
}

// Skip обрабатывает POST /api/questions/skip и возвращает следующий вопрос
func (h *QuestionHandler) Skip(c *gin.Context) {
	var req dto.SkipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	userID, ok := resolveActingUser(c, h.identity, req.Username)
	if !ok {
		return
	}

	if err := h.matching.Skip(c.Request.Context(), userID, req.QuestionID); err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	h.respondNextQuestion(c, userID)
}

// Ask обрабатывает POST /api/questions/ask
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	userID, ok := resolveActingUser(c, h.identity, req.Username)
	if !ok {
		return
	}

	question, err := h.matching.Ask(c.Request.Context(), userID, req.QuestionText, *req.DesiredAnswer)
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionIDResponse{QuestionID: question.ID})
}

// AskExisting обрабатывает POST /api/questions/ask-existing
func (h *QuestionHandler) AskExisting(c *gin.Context) {
	var req dto.AskExistingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	userID, ok := resolveActingUser(c, h.identity, req.Username)
	if !ok {
		return
	}

	if err := h.matching.AskExisting(c.Request.Context(), userID, req.QuestionID, *req.DesiredAnswer); err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionIDResponse{QuestionID: req.QuestionID})
}

// GetQuestion обрабатывает GET /api/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	question, err := h.matching.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionDetailsResponse{
		ID:        question.ID,
		Text:      question.Text,
		CreatedAt: question.CreatedAt,
	})
}
