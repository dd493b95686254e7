package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	MasterData MasterDataConfig `yaml:"master_data"`
	Redis      RedisConfig      `yaml:"redis"`
	Batch      BatchConfig      `yaml:"batch"`
}

// DatabaseConfig holds the extract_job ledger connection. An empty DSN with
// the postgres driver disables the ledger.
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// Enabled reports whether a ledger database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" || strings.EqualFold(d.Driver, "sqlite")
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr   string `yaml:"grpc_addr"`
	Reflection bool   `yaml:"reflection"`
}

// LLMConfig selects and configures the extraction model.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // gemini or openai
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MasterDataConfig points at the insurer/category lookup backend.
type MasterDataConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RedisConfig enables the shared master-data cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// BatchConfig tunes processing.
type BatchConfig struct {
	BaselineConfidence float64       `yaml:"baseline_confidence"`
	Workers            int           `yaml:"workers"`
	ProcessTimeout     time.Duration `yaml:"process_timeout"`
	QueueSize          int           `yaml:"queue_size"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Timeout:  90 * time.Second,
		},
		MasterData: MasterDataConfig{
			Timeout:  15 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Batch: BatchConfig{
			BaselineConfidence: constants.DefaultConfidence,
			Workers:            1,
			ProcessTimeout:     3 * time.Minute,
			QueueSize:          64,
		},
	}
}

// LoadConfig reads defaults, then the optional YAML file at path, then
// environment variables, each layer overriding the previous one.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.Database.Driver, "DB_DRIVER")
	envString(&c.Database.DSN, "DB_URL")
	envInt32(&c.Database.MaxConns, "DB_MAX_CONNS")
	envInt32(&c.Database.MinConns, "DB_MIN_CONNS")
	envDuration(&c.Database.MaxConnLifetime, "DB_MAX_CONN_LIFETIME")
	envDuration(&c.Database.MaxConnIdleTime, "DB_MAX_CONN_IDLE_TIME")
	envDuration(&c.Database.DialTimeout, "DB_DIAL_TIMEOUT")
	envDuration(&c.Database.StatementTimeout, "DB_STATEMENT_TIMEOUT")

	envString(&c.Server.GRPCAddr, "GRPC_ADDR")
	envBool(&c.Server.Reflection, "GRPC_REFLECTION")

	envString(&c.LLM.Provider, "LLM_PROVIDER")
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	envString(&c.LLM.Model, "LLM_MODEL")
	envString(&c.LLM.BaseURL, "LLM_BASE_URL")
	envFloat32(&c.LLM.Temperature, "LLM_TEMPERATURE")
	envDuration(&c.LLM.Timeout, "LLM_TIMEOUT")
	switch c.LLM.Provider {
	case ProviderGemini:
		envString(&c.LLM.APIKey, "GEMINI_API_KEY")
	case ProviderOpenAI:
		envString(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	envString(&c.LLM.APIKey, "LLM_API_KEY")

	envString(&c.MasterData.BaseURL, "MASTER_DATA_URL")
	envDuration(&c.MasterData.Timeout, "MASTER_DATA_TIMEOUT")
	envDuration(&c.MasterData.CacheTTL, "MASTER_DATA_CACHE_TTL")

	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.Redis.Password, "REDIS_PASSWORD")
	envInt(&c.Redis.DB, "REDIS_DB")
	envString(&c.Redis.Prefix, "REDIS_PREFIX")

	envFloat64(&c.Batch.BaselineConfidence, "BASELINE_CONFIDENCE")
	envInt(&c.Batch.Workers, "PROCESS_WORKERS")
	envDuration(&c.Batch.ProcessTimeout, "PROCESS_TIMEOUT")
	envInt(&c.Batch.QueueSize, "PROCESS_QUEUE_SIZE")
}

// Helper functions for environment variable parsing. Unset or unparsable
// values leave the current setting untouched.
func envString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			*dst = v
		}
	}
}

func envInt32(dst *int32, key string) {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 32); err == nil {
			*dst = int32(v)
		}
	}
}

func envFloat32(dst *float32, key string) {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 32); err == nil {
			*dst = float32(v)
		}
	}
}

func envFloat64(dst *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = v
		}
	}
}

func envBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			*dst = v
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			*dst = d
		}
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("an API key for the extraction model is required (GEMINI_API_KEY, OPENAI_API_KEY or LLM_API_KEY)"))
	}
	if c.Server.GRPCAddr == "" {
		errs = append(errs, errors.New("GRPC_ADDR is required"))
	}
	if c.Batch.BaselineConfidence < 0 || c.Batch.BaselineConfidence > 100 {
		errs = append(errs, errors.New("BASELINE_CONFIDENCE must be within 0..100"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, errors.New("PROCESS_WORKERS must be at least 1"))
	}
	if len(errs) > 0 {
		return NewAppError("CONFIG_ERROR", "invalid configuration", errors.Join(append([]error{ErrInvalidInput}, errs...)...))
	}
	return nil
}
