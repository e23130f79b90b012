package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Connector     ConnectorConfig         `mapstructure:"connector"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress     string `mapstructure:"broker_address"`
	UsePlaintext      bool   `mapstructure:"use_plaintext"`
	MaxJobsActive     int    `mapstructure:"max_jobs_active"`
	Timeout           int    `mapstructure:"timeout"`             // milliseconds
	RequestTimeout    int    `mapstructure:"request_timeout"`     // milliseconds
	ConnectTimeout    int    `mapstructure:"connect_timeout"`     // milliseconds
	ConnectMaxElapsed int    `mapstructure:"connect_max_elapsed"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProfileIndex string   `mapstructure:"profile_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

const (
	ProviderGenAI  = "genai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

type APIsConfig struct {
	// Provider selects the completion backend: genai, gemini or none.
	Provider string `mapstructure:"provider"`

	GenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`

	Gemini struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"gemini"`
}

type ConnectorConfig struct {
	Extraction     ExtractionConfig     `mapstructure:"extraction"`
	Disambiguation DisambiguationConfig `mapstructure:"disambiguation"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Turn           TurnConfig           `mapstructure:"turn"`
	Session        SessionConfig        `mapstructure:"session"`
	CandidatePool  CandidatePoolConfig  `mapstructure:"candidate_pool"`
}

type ExtractionConfig struct {
	Timeout     int     `mapstructure:"timeout"` // milliseconds, per attempt
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type DisambiguationConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	Timeout      int  `mapstructure:"timeout"` // milliseconds, per attempt
	MaxRetries   int  `mapstructure:"max_retries"`
	MaxCalls     int  `mapstructure:"max_calls"`
	Concurrency  int  `mapstructure:"concurrency"`
	RuleFallback bool `mapstructure:"rule_fallback"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	RecoveryTimeout  int `mapstructure:"recovery_timeout"` // milliseconds
}

type TurnConfig struct {
	Timeout        int `mapstructure:"timeout"`       // milliseconds
	StoreTimeout   int `mapstructure:"store_timeout"` // milliseconds
	MaxMatches     int `mapstructure:"max_matches"`
	MaxSuggestions int `mapstructure:"max_suggestions"`
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	PreferencesMerge   = "merge"
	PreferencesReplace = "replace"
)

type SessionConfig struct {
	Backend           string `mapstructure:"backend"`
	TTLMinutes        int    `mapstructure:"ttl_minutes"`
	MaxEntries        int    `mapstructure:"max_entries"`
	KeyPrefix         string `mapstructure:"key_prefix"`
	PreferencesPolicy string `mapstructure:"preferences_policy"`
	SerializeTurns    bool   `mapstructure:"serialize_turns"`
}

const (
	PoolSourcePostgres      = "postgres"
	PoolSourceElasticsearch = "elasticsearch"
)

type CandidatePoolConfig struct {
	Source string `mapstructure:"source"`
	Limit  int    `mapstructure:"limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName     string  `mapstructure:"service_name"`
	MetricsAddress  string  `mapstructure:"metrics_address"`
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	TracingInsecure bool    `mapstructure:"tracing_insecure"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
}
