package entity

import (
	"time"
)

// LedgerEntry хранит позицию пользователя по вопросу: ответ или пропуск.
// Одна строка на пару (пользователь, вопрос):
//   - Answer != nil — пользователь ответил (Skipped всегда false);
//   - Answer == nil && Skipped — пользователь пропустил вопрос.
type LedgerEntry struct {
	UserID     uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	QuestionID uint       `gorm:"primaryKey;autoIncrement:false;index" json:"question_id"`
	Answer     *bool      `json:"answer"`
	Skipped    bool       `gorm:"not null" json:"skipped"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Stance возвращает ответ пользователя (StanceAbsent для пропуска)
func (e *LedgerEntry) Stance() Stance {
	return StanceFromPtr(e.Answer)
}

// IsAnswered возвращает true, если на вопрос дан ответ
func (e *LedgerEntry) IsAnswered() bool {
	return e.Answer != nil
}

// IsSkipped возвращает true, если вопрос пропущен и ответа нет
func (e *LedgerEntry) IsSkipped() bool {
	return e.Answer == nil && e.Skipped
}

// ApplyAnswer записывает ответ поверх предыдущего состояния. Ответ отменяет пропуск.
func (e *LedgerEntry) ApplyAnswer(answer bool, at time.Time) {
	value := answer
	e.Answer = &value
	e.Skipped = false
	e.AnsweredAt = &at
	e.UpdatedAt = at
}

// ApplySkip помечает вопрос пропущенным. Уже данный ответ пропуск не затирает,
// в этом случае метод возвращает false.
func (e *LedgerEntry) ApplySkip(at time.Time) bool {
	if e.IsAnswered() {
		return false
	}
	e.Skipped = true
	e.UpdatedAt = at
	return true
}
