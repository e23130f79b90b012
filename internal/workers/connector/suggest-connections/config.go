package suggestconnections

import (
	"time"

	"connector-workers/internal/common/config"
	filtercandidates "connector-workers/internal/workers/connector/filter-candidates"
)

type Config struct {
	Timeout        time.Duration
	MaxSuggestions int

	Filter *filtercandidates.Config
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		MaxSuggestions: DefaultMaxSuggestions,
		Filter:         filtercandidates.LoadConfig(),
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}
	if n := app.Connector.Turn.MaxSuggestions; n > 0 {
		cfg.MaxSuggestions = n
	}
	cfg.Filter = filtercandidates.FromAppConfig(app)
	return cfg
}
