package calculatecompatibilityscore

import "connector-workers/internal/models"

type Input struct {
	UserProfile models.UserProfile    `json:"userProfile"`
	Criteria    models.SearchCriteria `json:"criteria"`
	Candidates  []models.Candidate    `json:"candidates"`
}

type Output struct {
	Matches    []models.MatchResult `json:"matches"`
	HasMatches bool                 `json:"hasMatches"`
	Qualified  int                  `json:"qualified"` // matches over threshold, before the top-N cut
	Threshold  int                  `json:"threshold"`
}
