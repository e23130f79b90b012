package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"connector-workers/internal/common/metrics"
)

const (
	ProviderGemini     = "gemini"
	defaultGeminiModel = "gemini-2.5-flash"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls the Gemini API directly through the genai SDK.
type GeminiClient struct {
	models contentGenerator
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGeminiClient(client.Models, model), nil
}

func newGeminiClient(models contentGenerator, model string) *GeminiClient {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{models: models, model: model}
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	started := time.Now()
	defer func() {
		metrics.LLMRequestDuration.WithLabelValues(ProviderGemini).Observe(time.Since(started).Seconds())
	}()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		metrics.LLMRequests.WithLabelValues(ProviderGemini, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: gemini: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: gemini: %v", ErrCompletionFailed, err)
	}

	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || strings.TrimSpace(part.Text) == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(strings.TrimSpace(part.Text))
			}
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		metrics.LLMRequests.WithLabelValues(ProviderGemini, "empty").Inc()
		return "", fmt.Errorf("%w: gemini returned empty response", ErrCompletionFailed)
	}

	metrics.LLMRequests.WithLabelValues(ProviderGemini, "ok").Inc()
	return text, nil
}

func (c *GeminiClient) Model() string {
	return c.model
}
