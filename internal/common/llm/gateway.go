package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "connector-workers/internal/common/http"
	"connector-workers/internal/common/metrics"
)

const ProviderGenAI = "genai"

// GatewayClient calls the platform's GenAI gateway.
type GatewayClient struct {
	http    *commonhttp.Client
	baseURL string
}

type gatewayRequest struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type gatewayResponse struct {
	Text string `json:"text"`
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration) *GatewayClient {
	client := commonhttp.NewClient(timeout)
	if apiKey != "" {
		client.WithHeader("Authorization", "Bearer "+apiKey)
	}
	return &GatewayClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *GatewayClient) Complete(ctx context.Context, req Request) (string, error) {
	started := time.Now()
	defer func() {
		metrics.LLMRequestDuration.WithLabelValues(ProviderGenAI).Observe(time.Since(started).Seconds())
	}()

	var out gatewayResponse
	err := c.http.PostJSON(ctx, c.baseURL+"/api/ai/complete", gatewayRequest{
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &out)
	if err != nil {
		metrics.LLMRequests.WithLabelValues(ProviderGenAI, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: genai gateway: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: genai gateway: %v", ErrCompletionFailed, err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		metrics.LLMRequests.WithLabelValues(ProviderGenAI, "empty").Inc()
		return "", fmt.Errorf("%w: genai gateway returned empty text", ErrCompletionFailed)
	}

	metrics.LLMRequests.WithLabelValues(ProviderGenAI, "ok").Inc()
	return text, nil
}
