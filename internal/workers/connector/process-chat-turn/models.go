package processchatturn

import "connector-workers/internal/models"

type Input struct {
	SessionID     string               `json:"sessionId" validate:"max=128"`
	UserMessage   string               `json:"userMessage" validate:"required,max=4000"`
	UserProfile   *models.UserProfile  `json:"userProfile" validate:"omitempty"`
	CandidatePool []models.UserProfile `json:"candidatePool"`
}

type Output struct {
	Message    string               `json:"message"`
	Matches    []models.MatchResult `json:"matches"`
	SessionID  string               `json:"sessionId"`
	HasMatches bool                 `json:"hasMatches"`
}

const (
	outcomeMatches   = "matches"
	outcomeNoMatches = "no_matches"
	outcomeFallback  = "fallback"
	outcomeInvalid   = "invalid"
)
