package extractsearchcriteria

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/validation"
	"connector-workers/internal/models"
)

const systemPrompt = `Eres un experto en analizar búsquedas de networking.
Extrae criterios de búsqueda de mensajes de usuarios.
Responde SOLO con JSON válido, sin explicaciones.
Campos: target_type (entrepreneur/investor/validator/partner/mentor),
industry (fintech/healthtech/edtech/saas/ecommerce/ai/blockchain/gaming/foodtech/proptech/agritech/cleantech/biotech/legaltech/hrtech/martech),
stage (idea/mvp/seed/series_a/series_b/growth/scale),
location (país o región),
keywords (array de palabras clave relevantes),
looking_for (qué busca: funding/cofounder/validation/customers/talent/partner/mentor)`

var replySchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"target_type": {"type": ["string", "null"]},
		"industry":    {"type": ["string", "null"]},
		"stage":       {"type": ["string", "null"]},
		"location":    {"type": ["string", "null"]},
		"keywords":    {"type": ["array", "null"], "items": {"type": "string"}},
		"looking_for": {"type": ["string", "null"]}
	}
}`)

// RemoteClassifier asks the completion service for criteria as JSON.
type RemoteClassifier struct {
	completer   llm.Completer
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

func NewRemoteClassifier(completer llm.Completer, cfg *Config, log logger.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		completer:   completer,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log,
	}
}

func (c *RemoteClassifier) Classify(ctx context.Context, message string) (models.SearchCriteria, error) {
	reply, err := c.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf("Mensaje del usuario: '%s'", message),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return models.SearchCriteria{}, fmt.Errorf("%w: %v", ErrCriteriaExtractionFailed, err)
	}

	c.logger.Debug("extraction reply", map[string]interface{}{
		"reply": logger.Truncate(reply, logger.DefaultTruncateLength),
	})

	return ParseReply(reply)
}

// ParseReply turns a model reply into criteria. Fenced JSON is accepted;
// anything that is not a schema-conforming object is rejected.
func ParseReply(reply string) (models.SearchCriteria, error) {
	doc := llm.ExtractJSON(reply)

	result, err := replySchema.ValidateDocument(doc)
	if err != nil {
		return models.SearchCriteria{}, fmt.Errorf("%w: %v", ErrCriteriaExtractionFailed, err)
	}
	if !result.Valid {
		return models.SearchCriteria{}, fmt.Errorf("%w: %s", ErrCriteriaExtractionFailed, result.Error())
	}

	var extracted extractedCriteria
	if err := json.Unmarshal([]byte(doc), &extracted); err != nil {
		return models.SearchCriteria{}, fmt.Errorf("%w: %v", ErrCriteriaExtractionFailed, err)
	}

	criteria := models.SearchCriteria{
		TargetType: models.NormalizeTarget(deref(extracted.TargetType)),
		Industry:   deref(extracted.Industry),
		Stage:      deref(extracted.Stage),
		Location:   deref(extracted.Location),
		LookingFor: deref(extracted.LookingFor),
	}
	for _, kw := range extracted.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			criteria.Keywords = append(criteria.Keywords, kw)
		}
	}
	criteria.Normalize()
	return criteria, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
