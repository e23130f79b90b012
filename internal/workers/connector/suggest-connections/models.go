package suggestconnections

import "connector-workers/internal/models"

type Input struct {
	UserProfile   models.UserProfile   `json:"userProfile"`
	CandidatePool []models.UserProfile `json:"candidatePool"`
	Limit         int                  `json:"limit,omitempty" validate:"gte=0"`
}

type Output struct {
	Suggestions []models.MatchResult `json:"suggestions"`
	Count       int                  `json:"count"`
	Targets     []models.Role        `json:"targets"`
}
