package loadcandidatepool

import (
	"time"

	"connector-workers/internal/common/config"
)

// MaxLimit bounds a single load regardless of what the job asks for.
const MaxLimit = 1000

type Config struct {
	Timeout      time.Duration
	Source       string
	Limit        int
	ProfileIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		Source:       config.PoolSourcePostgres,
		Limit:        200,
		ProfileIndex: "user_profiles",
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if t := config.GetWorkerConfig(app, TaskType).Timeout; t > 0 {
		cfg.Timeout = config.GetDuration(t)
	}
	pool := app.Connector.CandidatePool
	if pool.Source != "" {
		cfg.Source = pool.Source
	}
	if pool.Limit > 0 {
		cfg.Limit = pool.Limit
	}
	if idx := app.Database.Elasticsearch.ProfileIndex; idx != "" {
		cfg.ProfileIndex = idx
	}
	return cfg
}
