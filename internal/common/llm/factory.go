package llm

import (
	"context"
	"fmt"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/logger"
)

// CallSites holds one retrying completer per call site. Both share the same
// breaker so an outage detected by one stops the other. Nil completers mean
// no provider is configured and the rule-based paths are used.
type CallSites struct {
	Extraction     Completer
	Disambiguation Completer
	Breaker        *CircuitBreaker
}

// NewProvider builds the configured provider client, or nil for "none".
func NewProvider(ctx context.Context, cfg *config.Config) (Completer, string, error) {
	switch cfg.APIs.Provider {
	case config.ProviderGenAI:
		return NewGatewayClient(cfg.APIs.GenAI.BaseURL, cfg.APIs.GenAI.APIKey, config.GetDuration(cfg.APIs.GenAI.Timeout)), ProviderGenAI, nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.APIs.Gemini.APIKey, cfg.APIs.Gemini.Model)
		if err != nil {
			return nil, "", err
		}
		return client, ProviderGemini, nil
	case config.ProviderNone, "":
		return nil, config.ProviderNone, nil
	default:
		return nil, "", fmt.Errorf("unsupported completion provider %q", cfg.APIs.Provider)
	}
}

func NewCallSites(ctx context.Context, cfg *config.Config, log logger.Logger) (CallSites, error) {
	provider, name, err := NewProvider(ctx, cfg)
	if err != nil {
		return CallSites{}, err
	}
	return WrapCallSites(provider, name, cfg.Connector, log), nil
}

// WrapCallSites applies the breaker and per-site retry policies to provider.
func WrapCallSites(provider Completer, name string, cfg config.ConnectorConfig, log logger.Logger) CallSites {
	if provider == nil {
		return CallSites{}
	}

	breaker := NewCircuitBreaker(name, cfg.CircuitBreaker.FailureThreshold, config.GetDuration(cfg.CircuitBreaker.RecoveryTimeout), log)
	guarded := NewGuarded(provider, breaker)

	return CallSites{
		Extraction: NewRetrying(guarded, RetryPolicy{
			CallSite:   "criteria-extraction",
			Timeout:    config.GetDuration(cfg.Extraction.Timeout),
			MaxRetries: cfg.Extraction.MaxRetries,
		}, log),
		Disambiguation: NewRetrying(guarded, RetryPolicy{
			CallSite:   "investor-disambiguation",
			Timeout:    config.GetDuration(cfg.Disambiguation.Timeout),
			MaxRetries: cfg.Disambiguation.MaxRetries,
		}, log),
		Breaker: breaker,
	}
}
