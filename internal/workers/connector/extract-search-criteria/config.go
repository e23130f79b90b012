package extractsearchcriteria

import (
	"time"

	"connector-workers/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     20 * time.Second,
		Temperature: 0.3,
		MaxTokens:   300,
	}
}

// FromAppConfig overlays the application settings on the defaults.
func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}
	if app.Connector.Extraction.Temperature > 0 {
		cfg.Temperature = app.Connector.Extraction.Temperature
	}
	if app.Connector.Extraction.MaxTokens > 0 {
		cfg.MaxTokens = app.Connector.Extraction.MaxTokens
	}
	return cfg
}
