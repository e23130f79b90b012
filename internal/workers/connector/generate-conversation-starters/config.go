package generateconversationstarters

import (
	"time"

	"connector-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}
	return cfg
}
