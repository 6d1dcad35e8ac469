package dto

// MatchResponse — {match: username | null, score: number | null}
type MatchResponse struct {
	Match *string  `json:"match"`
	Score *float64 `json:"score"`
}

// SearchRequest — фильтры поиска: ID вопроса (строкой, как ключ JSON-объекта) -> ответ
type SearchRequest struct {
	Filters map[string]bool `json:"filters" binding:"required"`
}

// SearchResponse — имена найденных пользователей
type SearchResponse struct {
	Users []string `json:"users"`
}
