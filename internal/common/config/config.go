// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Scoring    ScoringConfig           `mapstructure:"scoring"`
	Benchmarks BenchmarksConfig        `mapstructure:"benchmarks"`
	Inference  InferenceConfig         `mapstructure:"inference"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
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

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single-address shorthand
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Readiness Scoring ---

// ScoringConfig selects the rules file and overrides a few rule values.
type ScoringConfig struct {
	RulesPath        string `mapstructure:"rules_path"` // empty: built-in rules
	AllowPartial     *bool  `mapstructure:"allow_partial"` // nil: keep the rules file value
	InferenceTimeout int    `mapstructure:"inference_timeout"` // milliseconds
	BatchLimit       int    `mapstructure:"batch_limit"`
}

// Benchmark table sources.
const (
	BenchmarkSourceEmbedded      = "embedded"
	BenchmarkSourceFile          = "file"
	BenchmarkSourcePostgres      = "postgres"
	BenchmarkSourceElasticsearch = "elasticsearch"
)

type BenchmarksConfig struct {
	Source          string `mapstructure:"source"`
	TablePath       string `mapstructure:"table_path"`
	PostgresTable   string `mapstructure:"postgres_table"`
	Index           string `mapstructure:"index"`
	RefreshInterval int    `mapstructure:"refresh_interval"` // seconds, 0 disables refresh
}

// RefreshEvery returns the refresh period, or zero when refresh is disabled.
func (b BenchmarksConfig) RefreshEvery() time.Duration {
	return time.Duration(b.RefreshInterval) * time.Second
}

// Inference analyzer modes.
const (
	InferenceModeNone  = "none"
	InferenceModeHTTP  = "http"
	InferenceModeProbe = "probe"
)

type InferenceConfig struct {
	Mode         string `mapstructure:"mode"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds, per HTTP request
	UserAgent    string `mapstructure:"user_agent"`
	CacheEnabled bool   `mapstructure:"cache_enabled"`
	CacheTTL     int    `mapstructure:"cache_ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
