package matching

import (
	"time"

	"github.com/fogelran/people-match/internal/domain/repository"
)

// Значения по умолчанию
const (
	DefaultMinEvidence   = 1
	DefaultMaxRetries    = 3
	DefaultMatchCacheTTL = 5 * time.Minute
)

// Config содержит настройки подбора пар
type Config struct {
	// MinEvidence — минимальный размер набора вопросов S, при котором кандидат учитывается
	MinEvidence int

	// Symmetric — учитывать желания кандидата против ответов пользователя (true)
	// или только желания пользователя против ответов кандидата (false)
	Symmetric bool

	// Повторы при сбоях хранилища
	MaxRetries    int           // Сколько раз повторять операцию после первой неудачи
	RetryInterval time.Duration // Интервал между повторными попытками

	// MatchCacheTTL — время жизни закешированного результата checkMatch
	MatchCacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MinEvidence:   DefaultMinEvidence,
		Symmetric:     true,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: 100 * time.Millisecond,
		MatchCacheTTL: DefaultMatchCacheTTL,
	}
}

// minEvidence возвращает порог не меньше 1: кандидат с пустым S никогда не оценивается
func (c *Config) minEvidence() int {
	if c == nil || c.MinEvidence < 1 {
		return 1
	}
	return c.MinEvidence
}

// Dependencies содержит зависимости селектора и скорера
type Dependencies struct {
	SnapshotRepo repository.SnapshotRepository
	Config       *Config
}
