package calculatecompatibilityscore

import (
	"time"

	"connector-workers/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxMatches int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    5 * time.Second,
		MaxMatches: MaxExposedMatches,
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}
	if n := app.Connector.Turn.MaxMatches; n > 0 && n < MaxExposedMatches {
		cfg.MaxMatches = n
	}
	return cfg
}
