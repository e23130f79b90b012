package extractsearchcriteria

import "connector-workers/internal/models"

const (
	SourceLLM   = "llm"
	SourceRules = "rules"
)

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Criteria models.SearchCriteria `json:"criteria"`
	Source   string                `json:"source"` // "llm" or "rules"
}

// extractedCriteria is the model's reply. Every field may be null.
type extractedCriteria struct {
	TargetType *string  `json:"target_type"`
	Industry   *string  `json:"industry"`
	Stage      *string  `json:"stage"`
	Location   *string  `json:"location"`
	Keywords   []string `json:"keywords"`
	LookingFor *string  `json:"looking_for"`
}
