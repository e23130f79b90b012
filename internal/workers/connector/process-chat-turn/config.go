package processchatturn

import (
	"time"

	"connector-workers/internal/common/config"
	extractsearchcriteria "connector-workers/internal/workers/connector/extract-search-criteria"
	filtercandidates "connector-workers/internal/workers/connector/filter-candidates"
)

type Config struct {
	Timeout           time.Duration
	StoreTimeout      time.Duration
	MaxMatches        int
	PreferencesPolicy string
	SerializeTurns    bool

	Extraction *extractsearchcriteria.Config
	Filter     *filtercandidates.Config
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           30 * time.Second,
		StoreTimeout:      5 * time.Second,
		MaxMatches:        5,
		PreferencesPolicy: config.PreferencesMerge,
		SerializeTurns:    true,
		Extraction:        extractsearchcriteria.LoadConfig(),
		Filter:            filtercandidates.LoadConfig(),
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := LoadConfig()
	if app.Connector.Turn.Timeout > 0 {
		cfg.Timeout = config.GetDuration(app.Connector.Turn.Timeout)
	}
	if app.Connector.Turn.StoreTimeout > 0 {
		cfg.StoreTimeout = config.GetDuration(app.Connector.Turn.StoreTimeout)
	}
	if app.Connector.Turn.MaxMatches > 0 {
		cfg.MaxMatches = app.Connector.Turn.MaxMatches
	}
	if app.Connector.Session.PreferencesPolicy != "" {
		cfg.PreferencesPolicy = app.Connector.Session.PreferencesPolicy
	}
	cfg.SerializeTurns = app.Connector.Session.SerializeTurns
	cfg.Extraction = extractsearchcriteria.FromAppConfig(app)
	cfg.Filter = filtercandidates.FromAppConfig(app)
	return cfg
}
