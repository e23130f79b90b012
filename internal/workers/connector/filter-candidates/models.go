package filtercandidates

import "connector-workers/internal/models"

type Input struct {
	RequesterID   string               `json:"requesterId"`
	TargetType    string               `json:"targetType"`
	CandidatePool []models.UserProfile `json:"candidatePool"`
}

type Output struct {
	Candidates []models.Candidate `json:"candidates"`
	Count      int                `json:"count"`
	TargetType models.Role        `json:"targetType"`
	Stats      Stats              `json:"stats"`
}

// Stats counts how each pool entry was resolved.
type Stats struct {
	Direct    int `json:"direct"`
	Ambiguous int `json:"ambiguous"`
	Detected  int `json:"detected"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
