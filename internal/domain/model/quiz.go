package model

// QuizAnswer is one answered quiz question.
type QuizAnswer struct {
	QuestionID int    `json:"question_id"`
	Choice     string `json:"choice"`
}

// MatchResult is one ranked region recommendation.
type MatchResult struct {
	Rank         int     `json:"rank"`
	RegionID     string  `json:"region_id"`
	RegionName   string  `json:"region_name"`
	Description  string  `json:"description"`
	MatchScore   float64 `json:"match_score"`
	MatchPercent int     `json:"match_percent"`
}
