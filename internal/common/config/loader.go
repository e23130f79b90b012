package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setBoolDefaults(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return finalize(v)
}

// LoadFromFile reads a single YAML file; used by the CLI.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setBoolDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// setBoolDefaults registers the flags whose default is true; the zero value
// cannot be told apart from an explicit false after Unmarshal.
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("connector.disambiguation.enabled", true)
	v.SetDefault("connector.session.serialize_turns", true)
	v.SetDefault("camunda.use_plaintext", true)
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		if val := os.Getenv("GENAI_API_KEY"); val != "" {
			cfg.APIs.GenAI.APIKey = val
		}
	}
	if cfg.APIs.Gemini.APIKey == "" {
		if val := os.Getenv("GEMINI_API_KEY"); val != "" {
			cfg.APIs.Gemini.APIKey = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "connector-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.ConnectTimeout == 0 {
		cfg.Camunda.ConnectTimeout = 10000
	}
	if cfg.Camunda.ConnectMaxElapsed == 0 {
		cfg.Camunda.ConnectMaxElapsed = 60000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.ProfileIndex == "" {
		cfg.Database.Elasticsearch.ProfileIndex = "user_profiles"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.APIs.Provider == "" {
		cfg.APIs.Provider = ProviderGenAI
	}
	if cfg.APIs.GenAI.Timeout == 0 {
		cfg.APIs.GenAI.Timeout = 10000
	}

	ext := &cfg.Connector.Extraction
	if ext.Timeout == 0 {
		ext.Timeout = 8000
	}
	if ext.MaxRetries == 0 {
		ext.MaxRetries = 1
	}
	if ext.Temperature == 0 {
		ext.Temperature = 0.3
	}
	if ext.MaxTokens == 0 {
		ext.MaxTokens = 300
	}

	dis := &cfg.Connector.Disambiguation
	if dis.Timeout == 0 {
		dis.Timeout = 5000
	}
	if dis.MaxRetries == 0 {
		dis.MaxRetries = 1
	}
	if dis.MaxCalls == 0 {
		dis.MaxCalls = 10
	}
	if dis.Concurrency == 0 {
		dis.Concurrency = 4
	}

	cb := &cfg.Connector.CircuitBreaker
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 3
	}
	if cb.RecoveryTimeout == 0 {
		cb.RecoveryTimeout = 30000
	}

	if cfg.Connector.Turn.Timeout == 0 {
		cfg.Connector.Turn.Timeout = 30000
	}
	if cfg.Connector.Turn.StoreTimeout == 0 {
		cfg.Connector.Turn.StoreTimeout = 5000
	}
	if cfg.Connector.Turn.MaxMatches == 0 || cfg.Connector.Turn.MaxMatches > 5 {
		cfg.Connector.Turn.MaxMatches = 5
	}
	if cfg.Connector.Turn.MaxSuggestions <= 0 {
		cfg.Connector.Turn.MaxSuggestions = 6
	}

	sess := &cfg.Connector.Session
	if sess.Backend == "" {
		sess.Backend = SessionBackendMemory
	}
	if sess.TTLMinutes == 0 {
		sess.TTLMinutes = 24 * 60
	}
	if sess.MaxEntries == 0 {
		sess.MaxEntries = 10000
	}
	if sess.KeyPrefix == "" {
		sess.KeyPrefix = "connector:session:"
	}
	if sess.PreferencesPolicy == "" {
		sess.PreferencesPolicy = PreferencesMerge
	}

	if cfg.Connector.CandidatePool.Source == "" {
		cfg.Connector.CandidatePool.Source = PoolSourcePostgres
	}
	if cfg.Connector.CandidatePool.Limit == 0 {
		cfg.Connector.CandidatePool.Limit = 200
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.MetricsAddress == "" {
		cfg.Observability.MetricsAddress = ":8080"
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.APIs.Provider {
	case ProviderGenAI:
		if cfg.APIs.GenAI.BaseURL == "" {
			return fmt.Errorf("apis.genai.base_url is required when apis.provider is %q", ProviderGenAI)
		}
	case ProviderGemini:
		if cfg.APIs.Gemini.APIKey == "" {
			return fmt.Errorf("apis.gemini.api_key is required when apis.provider is %q", ProviderGemini)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("apis.provider must be one of genai, gemini, none (got %q)", cfg.APIs.Provider)
	}

	switch cfg.Connector.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("connector.session.backend must be memory or redis (got %q)", cfg.Connector.Session.Backend)
	}

	switch cfg.Connector.Session.PreferencesPolicy {
	case PreferencesMerge, PreferencesReplace:
	default:
		return fmt.Errorf("connector.session.preferences_policy must be merge or replace (got %q)", cfg.Connector.Session.PreferencesPolicy)
	}

	switch cfg.Connector.CandidatePool.Source {
	case PoolSourcePostgres, PoolSourceElasticsearch:
	default:
		return fmt.Errorf("connector.candidate_pool.source must be postgres or elasticsearch (got %q)", cfg.Connector.CandidatePool.Source)
	}

	if cfg.Connector.Extraction.MaxRetries > 1 || cfg.Connector.Disambiguation.MaxRetries > 1 {
		return fmt.Errorf("completion calls retry at most once")
	}

	return nil
}

// ValidateWorkerRuntime checks what the worker manager needs beyond the
// pipeline itself.
func (c *Config) ValidateWorkerRuntime() error {
	if c.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if IsWorkerEnabled(c, "load-candidate-pool") {
		switch c.Connector.CandidatePool.Source {
		case PoolSourcePostgres:
			if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" || c.Database.Postgres.User == "" {
				return fmt.Errorf("database.postgres host, database and user are required for load-candidate-pool")
			}
		case PoolSourceElasticsearch:
			if len(c.Database.Elasticsearch.Addresses) == 0 {
				return fmt.Errorf("database.elasticsearch.addresses is required for load-candidate-pool")
			}
		}
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
