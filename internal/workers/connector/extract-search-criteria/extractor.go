package extractsearchcriteria

import (
	"context"

	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/models"
)

// Classifier turns a member's message into search criteria.
type Classifier interface {
	Classify(ctx context.Context, message string) (models.SearchCriteria, error)
}

// Extractor tries the primary classifier and falls back to the keyword
// tables on any failure. Extract never fails.
type Extractor struct {
	primary  Classifier
	fallback Classifier
	logger   logger.Logger
}

// NewExtractor composes primary with the rule fallback. A nil primary means
// every extraction uses the rules.
func NewExtractor(primary Classifier, log logger.Logger) *Extractor {
	return &Extractor{
		primary:  primary,
		fallback: NewRuleClassifier(),
		logger:   log,
	}
}

func (e *Extractor) Extract(ctx context.Context, message string) (models.SearchCriteria, string) {
	if e.primary != nil {
		criteria, err := e.primary.Classify(ctx, message)
		if err == nil {
			metrics.CriteriaExtractions.WithLabelValues(SourceLLM).Inc()
			return criteria, SourceLLM
		}
		e.logger.Warn("criteria extraction failed, using keyword rules", map[string]interface{}{
			"error": err.Error(),
		})
	}

	criteria, _ := e.fallback.Classify(ctx, message)
	metrics.CriteriaExtractions.WithLabelValues(SourceRules).Inc()
	return criteria, SourceRules
}
