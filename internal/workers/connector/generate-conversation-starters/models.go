package generateconversationstarters

import "connector-workers/internal/models"

type Input struct {
	Matches  []models.MatchResult  `json:"matches"`
	Criteria models.SearchCriteria `json:"criteria"`
}

type Output struct {
	Matches []models.MatchResult `json:"matches"`
}
