package loadcandidatepool

import "connector-workers/internal/models"

type Input struct {
	RequesterID string `json:"requesterId"`
	TargetType  string `json:"targetType"`
	Source      string `json:"source,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type Output struct {
	CandidatePool      []models.UserProfile `json:"candidatePool"`
	Count              int                  `json:"count"`
	Source             string               `json:"source"`
	QueryExecutionTime int64                `json:"queryExecutionTime"` // milliseconds
}
