package dto

import (
	"time"

	"github.com/fogelran/people-match/internal/domain/entity"
)

// AnswerRequest — ответ пользователя на вопрос.
// Булевы поля передаются указателями: binding:"required" отвергает false у обычного bool.
type AnswerRequest struct {
	Username   string `json:"username" binding:"required"`
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     *bool  `json:"answer" binding:"required"`
}

// SkipRequest — пропуск вопроса
type SkipRequest struct {
	Username   string `json:"username" binding:"required"`
	QuestionID uint   `json:"question_id" binding:"required"`
}

// AskRequest — новый вопрос с желаемым ответом автора
type AskRequest struct {
	Username      string `json:"username" binding:"required"`
	QuestionText  string `json:"question_text" binding:"required"`
	DesiredAnswer *bool  `json:"desired_answer" binding:"required"`
}

// AskExistingRequest — желаемый ответ на существующий вопрос
type AskExistingRequest struct {
	Username      string `json:"username" binding:"required"`
	QuestionID    uint   `json:"question_id" binding:"required"`
	DesiredAnswer *bool  `json:"desired_answer" binding:"required"`
}

// QuestionDTO — вопрос в ответах next/answer/skip
type QuestionDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// NextQuestionResponse — {question: {id, text} | null}
type NextQuestionResponse struct {
	Question *QuestionDTO `json:"question"`
}

// NewNextQuestionResponse собирает ответ из вопроса (nil — вопросов не осталось)
func NewNextQuestionResponse(q *entity.Question) NextQuestionResponse {
	if q == nil {
		return NextQuestionResponse{}
	}
	return NextQuestionResponse{Question: &QuestionDTO{ID: q.ID, Text: q.Text}}
}

// QuestionIDResponse — ответ на ask и ask-existing
type QuestionIDResponse struct {
	QuestionID uint `json:"question_id"`
}

// QuestionDetailsResponse — вопрос по ID
type QuestionDetailsResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
