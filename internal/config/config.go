package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for all environment variables consumed by the service.
const EnvPrefix = "DATACHAT"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" envconfig:"CLICKHOUSE"`
	OpenAI     OpenAIConfig     `yaml:"openai" envconfig:"OPENAI"`
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/datachat.log"`
}

// ClickHouseConfig contains the analytical store connection settings.
// The dataset table holds the per-business transaction log the analysis
// sessions run against; the conversations table backs the chat transcripts.
type ClickHouseConfig struct {
	Host               string        `yaml:"host" envconfig:"HOST" default:"localhost:9440"`
	Database           string        `yaml:"database" envconfig:"DATABASE" default:"default"`
	User               string        `yaml:"user" envconfig:"USER" default:"default"`
	Password           string        `yaml:"password" envconfig:"PASSWORD"`
	Secure             bool          `yaml:"secure" envconfig:"SECURE" default:"true"`
	DialTimeout        time.Duration `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT" default:"10s"`
	DatasetTable       string        `yaml:"dataset_table" envconfig:"DATASET_TABLE" default:"masterLogging"`
	ConversationsTable string        `yaml:"conversations_table" envconfig:"CONVERSATIONS_TABLE" default:"conversations"`
}

// OpenAIConfig contains the model API settings for the planner and engine.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key" envconfig:"API_KEY"`
	PlannerModel string `yaml:"planner_model" envconfig:"PLANNER_MODEL" default:"gpt-4.1"`
	EngineModel  string `yaml:"engine_model" envconfig:"ENGINE_MODEL" default:"gpt-4.1"`
}

// AnalysisConfig contains execution policy for analysis sessions.
type AnalysisConfig struct {
	// AbortOnError stops a session at the first failed step instead of
	// continuing with the remaining instructions.
	AbortOnError bool `yaml:"abort_on_error" envconfig:"ABORT_ON_ERROR" default:"false"`
	// StepYield is the pause between emitted events so a slow consumer
	// can drain the stream while the session keeps executing.
	StepYield time.Duration `yaml:"step_yield" envconfig:"STEP_YIELD" default:"100ms"`
	// MaxSampleRows bounds how many rows of the working dataset are sent
	// to the engine per step.
	MaxSampleRows int `yaml:"max_sample_rows" envconfig:"MAX_SAMPLE_ROWS" default:"200"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// Load loads configuration from environment variables and, if present,
// a YAML config file. Environment values and tag defaults take precedence
// over file values for fields they set.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configFilePath returns the config file location, overridable via env.
func configFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeFileConfig fills secrets and addresses from the file when the
// environment did not supply them. Only fields without envconfig defaults
// participate, so tag defaults never mask file values that matter.
func mergeFileConfig(cfg, fileCfg *Config) {
	if cfg.ClickHouse.Password == "" {
		cfg.ClickHouse.Password = fileCfg.ClickHouse.Password
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = fileCfg.OpenAI.APIKey
	}
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required")
	}
	if c.ClickHouse.DatasetTable == "" {
		return fmt.Errorf("clickhouse dataset table is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}
	if c.Analysis.MaxSampleRows < 1 {
		return fmt.Errorf("analysis max sample rows must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
