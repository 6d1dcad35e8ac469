package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fogelran/people-match/internal/domain/entity"
	"github.com/fogelran/people-match/internal/middleware"
	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Моки
// ============================================================================

// MockMatchingService реализует MatchingService
type MockMatchingService struct {
	mock.Mock
}

func (m *MockMatchingService) Ask(ctx context.Context, userID uint, text string, desired bool) (*entity.Question, error) {
	args := m.Called(ctx, userID, text, desired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockMatchingService) AskExisting(ctx context.Context, userID, questionID uint, desired bool) error {
	return m.Called(ctx, userID, questionID, desired).Error(0)
}

func (m *MockMatchingService) Answer(ctx context.Context, userID, questionID uint, value bool) error {
	return m.Called(ctx, userID, questionID, value).Error(0)
}

func (m *MockMatchingService) Skip(ctx context.Context, userID, questionID uint) error {
	return m.Called(ctx, userID, questionID).Error(0)
}

func (m *MockMatchingService) GetQuestion(ctx context.Context, questionID uint) (*entity.Question, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockMatchingService) NextQuestion(ctx context.Context, userID uint) (*entity.Question, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockMatchingService) CheckMatch(ctx context.Context, userID uint) (*entity.MatchResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MatchResult), args.Error(1)
}

func (m *MockMatchingService) Search(ctx context.Context, filters map[uint]bool) ([]uint, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockMatchingService) QuestionCatalog(ctx context.Context) ([]entity.QuestionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuestionStats), args.Error(1)
}

// MockIdentityProvider реализует IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Register(ctx context.Context, username, password string) (*entity.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockIdentityProvider) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockIdentityProvider) Resolve(ctx context.Context, username string) (uint, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockIdentityProvider) UsernameOf(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) UsernamesOf(ctx context.Context, userIDs []uint) ([]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockIdentityProvider) IssueToken(user *entity.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// newAuthedContext — контекст запроса, прошедшего RequireAuth от имени username
func newAuthedContext(method, path, username string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newTestGinContext(method, path, body)
	c.Set(middleware.ContextUsername, username)
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// ============================================================================
// handleError
// ============================================================================

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound},
		{"conflict", apperrors.ErrConflict, http.StatusConflict},
		{"validation", apperrors.ErrValidation, http.StatusUnprocessableEntity},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"internal", errors.New("db is down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodGet, "/", nil)
			handleError(c, "Test", tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	c, w := newTestGinContext(http.MethodGet, "/", nil)
	handleError(c, "Test", errors.New("secret connection string"))
	assert.NotContains(t, w.Body.String(), "secret", "Детали внутренней ошибки не отдаются клиенту")
}

// ============================================================================
// AuthHandler
// ============================================================================

func TestAuthHandler_Register(t *testing.T) {
	identity := new(MockIdentityProvider)
	user := &entity.User{ID: 3, Username: "alice"}
	identity.On("Register", mock.Anything, "alice", "password1").Return(user, nil)
	identity.On("IssueToken", user).Return("token-123", nil)

	c, w := newTestGinContext(http.MethodPost, "/api/register", map[string]string{"username": "alice", "password": "password1"})
	NewAuthHandler(identity).Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(3), resp["id"])
	assert.Equal(t, "token-123", resp["access_token"])
	identity.AssertExpectations(t)
}

func TestAuthHandler_Register_Taken(t *testing.T) {
	identity := new(MockIdentityProvider)
	identity.On("Register", mock.Anything, "alice", "password1").Return(nil, apperrors.ErrConflict)

	c, w := newTestGinContext(http.MethodPost, "/api/register", map[string]string{"username": "alice", "password": "password1"})
	NewAuthHandler(identity).Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_ValidationErrors(t *testing.T) {
	handler := NewAuthHandler(new(MockIdentityProvider)) // сервис не вызывается

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing password", map[string]string{"username": "alice"}},
		{"short password", map[string]string{"username": "alice", "password": "123"}},
		{"long username", map[string]string{"username": strings.Repeat("a", 65), "password": "password1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/login", tt.body)
			handler.Login(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid request data", parseJSONResponse(t, w)["error"])
		})
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	identity := new(MockIdentityProvider)
	identity.On("Authenticate", mock.Anything, "alice", "password1").Return(nil, apperrors.ErrUnauthorized)

	c, w := newTestGinContext(http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "password1"})
	NewAuthHandler(identity).Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	identity.AssertNotCalled(t, "IssueToken", mock.Anything)
}

// ============================================================================
// QuestionHandler
// ============================================================================

func TestQuestionHandler_NextQuestion(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("NextQuestion", mock.Anything, uint(1)).Return(&entity.Question{ID: 5, Text: "Do you like hiking?"}, nil)

	c, w := newAuthedContext(http.MethodGet, "/api/questions/next?username=alice", "alice", nil)
	NewQuestionHandler(matching, identity).NextQuestion(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":{"id":5,"text":"Do you like hiking?"}}`, w.Body.String())
}

func TestQuestionHandler_NextQuestion_None(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("NextQuestion", mock.Anything, uint(1)).Return(nil, nil)

	c, w := newAuthedContext(http.MethodGet, "/api/questions/next?username=alice", "alice", nil)
	NewQuestionHandler(matching, identity).NextQuestion(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":null}`, w.Body.String())
}

func TestQuestionHandler_ForeignUsername(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)

	c, w := newAuthedContext(http.MethodGet, "/api/questions/next?username=bob", "alice", nil)
	NewQuestionHandler(matching, identity).NextQuestion(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	identity.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestMatchHandler_UnknownUser(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "ghost").Return(uint(0), apperrors.ErrNotFound)

	c, w := newAuthedContext(http.MethodGet, "/api/match/check?username=ghost", "ghost", nil)
	NewMatchHandler(matching, identity).Check(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", parseJSONResponse(t, w)["error"])
}

func TestQuestionHandler_Answer_ReturnsNextQuestion(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("Answer", mock.Anything, uint(1), uint(5), false).Return(nil)
	matching.On("NextQuestion", mock.Anything, uint(1)).Return(&entity.Question{ID: 6, Text: "Next?"}, nil)

	body := map[string]interface{}{"username": "alice", "question_id": 5, "answer": false}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/answer", "alice", body)
	NewQuestionHandler(matching, identity).Answer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":{"id":6,"text":"Next?"}}`, w.Body.String())
	matching.AssertExpectations(t)
}

func TestQuestionHandler_Answer_MissingAnswer(t *testing.T) {
	handler := NewQuestionHandler(new(MockMatchingService), new(MockIdentityProvider))

	body := map[string]interface{}{"username": "alice", "question_id": 5}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/answer", "alice", body)
	handler.Answer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuestionHandler_Answer_UnknownQuestion(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("Answer", mock.Anything, uint(1), uint(99), true).Return(apperrors.ErrNotFound)

	body := map[string]interface{}{"username": "alice", "question_id": 99, "answer": true}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/answer", "alice", body)
	NewQuestionHandler(matching, identity).Answer(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	matching.AssertNotCalled(t, "NextQuestion", mock.Anything, mock.Anything)
}

func TestQuestionHandler_Skip(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("Skip", mock.Anything, uint(1), uint(5)).Return(nil)
	matching.On("NextQuestion", mock.Anything, uint(1)).Return(nil, nil)

	body := map[string]interface{}{"username": "alice", "question_id": 5}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/skip", "alice", body)
	NewQuestionHandler(matching, identity).Skip(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":null}`, w.Body.String())
}

func TestQuestionHandler_Ask(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("Ask", mock.Anything, uint(1), "Do you like hiking?", true).Return(&entity.Question{ID: 11}, nil)

	body := map[string]interface{}{"username": "alice", "question_text": "Do you like hiking?", "desired_answer": true}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/ask", "alice", body)
	NewQuestionHandler(matching, identity).Ask(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question_id":11}`, w.Body.String())
}

func TestQuestionHandler_Ask_EmptyText(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("Ask", mock.Anything, uint(1), "   ", true).Return(nil, apperrors.ErrValidation)

	body := map[string]interface{}{"username": "alice", "question_text": "   ", "desired_answer": true}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/ask", "alice", body)
	NewQuestionHandler(matching, identity).Ask(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestQuestionHandler_AskExisting(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("AskExisting", mock.Anything, uint(1), uint(4), false).Return(nil)

	body := map[string]interface{}{"username": "alice", "question_id": 4, "desired_answer": false}
	c, w := newAuthedContext(http.MethodPost, "/api/questions/ask-existing", "alice", body)
	NewQuestionHandler(matching, identity).AskExisting(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question_id":4}`, w.Body.String())
}

func TestQuestionHandler_GetQuestion(t *testing.T) {
	matching := new(MockMatchingService)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	matching.On("GetQuestion", mock.Anything, uint(4)).Return(&entity.Question{ID: 4, Text: "Q", CreatedAt: created}, nil)

	c, w := newTestGinContext(http.MethodGet, "/api/questions/4", nil)
	c.Set("questionID", uint(4))
	NewQuestionHandler(matching, new(MockIdentityProvider)).GetQuestion(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4,"text":"Q","created_at":"2024-05-01T10:00:00Z"}`, w.Body.String())
}

func TestQuestionHandler_ExportCSV(t *testing.T) {
	matching := new(MockMatchingService)
	matching.On("QuestionCatalog", mock.Anything).Return([]entity.QuestionStats{
		{ID: 1, Text: "=HYPERLINK(\"x\")", CreatedBy: 0, AnswerCount: 4, YesCount: 3, DesireCount: 1},
		{ID: 2, Text: "Do you like hiking?", CreatedBy: 7},
	}, nil)

	c, w := newTestGinContext(http.MethodGet, "/api/questions/export?format=csv", nil)
	NewQuestionHandler(matching, new(MockIdentityProvider)).ExportCatalog(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	body := w.Body.String()
	assert.Contains(t, body, `'=HYPERLINK`, "Формулы экранируются")
	assert.Contains(t, body, "system")
	assert.Contains(t, body, "0.75")
}

func TestQuestionHandler_ExportXLSX(t *testing.T) {
	matching := new(MockMatchingService)
	matching.On("QuestionCatalog", mock.Anything).Return([]entity.QuestionStats{{ID: 1, Text: "Q"}}, nil)

	c, w := newTestGinContext(http.MethodGet, "/api/questions/export?format=xlsx", nil)
	NewQuestionHandler(matching, new(MockIdentityProvider)).ExportCatalog(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "XLSX — это zip-архив")
}

func TestQuestionHandler_ExportUnknownFormat(t *testing.T) {
	c, w := newTestGinContext(http.MethodGet, "/api/questions/export?format=pdf", nil)
	NewQuestionHandler(new(MockMatchingService), new(MockIdentityProvider)).ExportCatalog(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// MatchHandler и UserHandler
// ============================================================================

func TestMatchHandler_Check(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	identity.On("UsernameOf", mock.Anything, uint(2)).Return("bob", nil)
	matching.On("CheckMatch", mock.Anything, uint(1)).Return(&entity.MatchResult{CandidateID: 2, Score: 0.5, Evidence: 2, Matches: 1}, nil)

	c, w := newAuthedContext(http.MethodGet, "/api/match/check?username=alice", "alice", nil)
	NewMatchHandler(matching, identity).Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"match":"bob","score":0.5}`, w.Body.String())
}

func TestMatchHandler_Check_NoMatch(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	identity.On("Resolve", mock.Anything, "alice").Return(uint(1), nil)
	matching.On("CheckMatch", mock.Anything, uint(1)).Return(nil, nil)

	c, w := newAuthedContext(http.MethodGet, "/api/match/check?username=alice", "alice", nil)
	NewMatchHandler(matching, identity).Check(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"match":null,"score":null}`, w.Body.String())
}

func TestUserHandler_Search(t *testing.T) {
	matching := new(MockMatchingService)
	identity := new(MockIdentityProvider)
	matching.On("Search", mock.Anything, map[uint]bool{3: true, 4: false}).Return([]uint{1, 2}, nil)
	identity.On("UsernamesOf", mock.Anything, []uint{1, 2}).Return([]string{"alice", "bob"}, nil)

	body := map[string]interface{}{"filters": map[string]bool{"3": true, "4": false}}
	c, w := newTestGinContext(http.MethodPost, "/api/users/search", body)
	NewUserHandler(matching, identity).Search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":["alice","bob"]}`, w.Body.String())
}

func TestUserHandler_Search_InvalidQuestionID(t *testing.T) {
	body := map[string]interface{}{"filters": map[string]bool{"abc": true}}
	c, w := newTestGinContext(http.MethodPost, "/api/users/search", body)
	NewUserHandler(new(MockMatchingService), new(MockIdentityProvider)).Search(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
