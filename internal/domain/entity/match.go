package entity

// QuestionCandidate — вопрос, ещё не отвеченный и не пропущенный пользователем,
// вместе с данными, по которым селектор выбирает следующий вопрос.
type QuestionCandidate struct {
	Question Question
	// DesiredByOthers — кто-то кроме пользователя указал желаемый ответ на вопрос
	DesiredByOthers bool
	// AnswerCount — сколько ответов на вопрос записано всего
	AnswerCount int64
}

// ScoringSnapshot — согласованный срез данных, достаточный для подсчёта
// совместимости пользователя со всеми остальными.
type ScoringSnapshot struct {
	UserID uint

	// Desires — желаемые ответы пользователя: questionID -> desired
	Desires map[uint]bool
	// Answers — ответы пользователя: questionID -> answer
	Answers map[uint]bool

	// OthersAnswers — ответы других пользователей на вопросы из Desires: userID -> questionID -> answer
	OthersAnswers map[uint]map[uint]bool
	// OthersDesires — желаемые ответы других пользователей на вопросы из Answers: userID -> questionID -> desired
	OthersDesires map[uint]map[uint]bool
}

// NewScoringSnapshot создаёт пустой срез для пользователя
func NewScoringSnapshot(userID uint) *ScoringSnapshot {
	return &ScoringSnapshot{
		UserID:        userID,
		Desires:       make(map[uint]bool),
		Answers:       make(map[uint]bool),
		OthersAnswers: make(map[uint]map[uint]bool),
		OthersDesires: make(map[uint]map[uint]bool),
	}
}

// AddOtherAnswer добавляет ответ другого пользователя
func (s *ScoringSnapshot) AddOtherAnswer(userID, questionID uint, answer bool) {
	if s.OthersAnswers[userID] == nil {
		s.OthersAnswers[userID] = make(map[uint]bool)
	}
	s.OthersAnswers[userID][questionID] = answer
}

// AddOtherDesire добавляет желаемый ответ другого пользователя
func (s *ScoringSnapshot) AddOtherDesire(userID, questionID uint, desired bool) {
	if s.OthersDesires[userID] == nil {
		s.OthersDesires[userID] = make(map[uint]bool)
	}
	s.OthersDesires[userID][questionID] = desired
}

// MatchResult — лучший кандидат для пользователя
type MatchResult struct {
	CandidateID uint    `json:"candidate_id"`
	Score       float64 `json:"score"`
	Evidence    int     `json:"evidence"` // размер набора вопросов S
	Matches     int     `json:"matches"`  // сколько вопросов из S совпали
}
