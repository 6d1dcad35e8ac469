package entity

import (
	"strings"
	"time"
)

const (
	// SystemAuthorID — автор вопросов из стартового каталога
	SystemAuthorID uint = 0

	// MaxQuestionTextLength — максимальная длина текста вопроса после обрезки пробелов
	MaxQuestionTextLength = 200
)

// Question представляет вопрос каталога. Текст неизменяем, вопросы не удаляются.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:200;not null;uniqueIndex" json:"text"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsSystem возвращает true для вопросов стартового каталога
func (q *Question) IsSystem() bool {
	return q.CreatedBy == SystemAuthorID
}

// NormalizeQuestionText приводит текст вопроса к виду, в котором он хранится.
// Вопросы с одинаковым нормализованным текстом считаются одним вопросом.
func NormalizeQuestionText(text string) string {
	return strings.TrimSpace(text)
}

// DesiredAnswer — ответ, который пользователь хочет услышать от потенциальной пары.
// Не более одной записи на пару (пользователь, вопрос).
type DesiredAnswer struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"question_id"`
	Desired    bool      `gorm:"not null" json:"desired_answer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (DesiredAnswer) TableName() string {
	return "desired_answers"
}

// QuestionStats — строка каталога вопросов со статистикой ответов
type QuestionStats struct {
	ID          uint      `json:"id"`
	Text        string    `json:"text"`
	CreatedBy   uint      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	AnswerCount int64     `json:"answer_count"`
	YesCount    int64     `json:"yes_count"`
	DesireCount int64     `json:"desire_count"`
}

// YesRate возвращает долю ответов "да" (0, если ответов нет)
func (s *QuestionStats) YesRate() float64 {
	if s.AnswerCount == 0 {
		return 0
	}
	return float64(s.YesCount) / float64(s.AnswerCount)
}
