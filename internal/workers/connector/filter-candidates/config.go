package filtercandidates

import (
	"time"

	"connector-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration

	// Disambiguation settings for investor searches.
	DisambiguationEnabled bool
	MaxCalls              int
	Concurrency           int
	RuleFallback          bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:               60 * time.Second,
		DisambiguationEnabled: true,
		MaxCalls:              10,
		Concurrency:           4,
		RuleFallback:          false,
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}

	dis := app.Connector.Disambiguation
	cfg.DisambiguationEnabled = dis.Enabled
	cfg.RuleFallback = dis.RuleFallback
	if dis.MaxCalls > 0 {
		cfg.MaxCalls = dis.MaxCalls
	}
	if dis.Concurrency > 0 {
		cfg.Concurrency = dis.Concurrency
	}
	return cfg
}
