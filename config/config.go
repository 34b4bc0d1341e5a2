package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SEARCH_ASSISTANT_"

type Config struct {
	ServerAddr     string    `json:"server_addr" yaml:"server_addr" env:"SERVER_ADDR"`
	MetricsAddr    string    `json:"metrics_addr" yaml:"metrics_addr" env:"METRICS_ADDR"`
	AllowedOrigins []string  `json:"allowed_origins" yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	RequestTimeout Duration  `json:"request_timeout" yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	Log            Log       `json:"log" yaml:"log" envPrefix:"LOG_"`
	Model          Model     `json:"model" yaml:"model" envPrefix:"MODEL_"`
	Guardrail      Guardrail `json:"guardrail" yaml:"guardrail" envPrefix:"GUARDRAIL_"`
	Search         Search    `json:"search" yaml:"search" envPrefix:"SEARCH_"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"`
}

type Model struct {
	Provider      string   `json:"provider" yaml:"provider" env:"PROVIDER"`
	Name          string   `json:"name" yaml:"name" env:"NAME"`
	BaseURL       string   `json:"base_url" yaml:"base_url" env:"BASE_URL"`
	APIKey        string   `json:"api_key" yaml:"api_key" env:"API_KEY"`
	MaxLength     int      `json:"max_length" yaml:"max_length" env:"MAX_LENGTH"`
	Temperature   float64  `json:"temperature" yaml:"temperature" env:"TEMPERATURE"`
	MaxConcurrent int64    `json:"max_concurrent" yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	InitTimeout   Duration `json:"init_timeout" yaml:"init_timeout" env:"INIT_TIMEOUT"`
}

// Guardrail is disabled while Model is empty.
type Guardrail struct {
	Model   string `json:"model" yaml:"model" env:"MODEL"`
	BaseURL string `json:"base_url" yaml:"base_url" env:"BASE_URL"`
}

type Search struct {
	Enabled      bool     `json:"enabled" yaml:"enabled" env:"ENABLED"`
	GoogleAPIKey string   `json:"google_api_key" yaml:"google_api_key" env:"GOOGLE_API_KEY"`
	GoogleCSEID  string   `json:"google_cse_id" yaml:"google_cse_id" env:"GOOGLE_CSE_ID"`
	Limit        int      `json:"limit" yaml:"limit" env:"LIMIT"`
	CacheTTL     Duration `json:"cache_ttl" yaml:"cache_ttl" env:"CACHE_TTL"`
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

func DefaultPath() string {
	return "config.yaml"
}

func Default() Config {
	return Config{
		ServerAddr:     ":5000",
		MetricsAddr:    ":9090",
		AllowedOrigins: []string{"*"},
		RequestTimeout: Duration(5 * time.Minute),
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Model: Model{
			Provider:      ProviderOllama,
			Name:          "qwen2.5:7b-instruct",
			MaxLength:     512,
			Temperature:   0.7,
			MaxConcurrent: 1,
			InitTimeout:   Duration(2 * time.Minute),
		},
		Search: Search{
			Limit:    5,
			CacheTTL: Duration(time.Hour),
		},
	}
}

// Load reads the file at path on top of the defaults, then applies .env and
// SEARCH_ASSISTANT_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse YAML config: %w", err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.ServerAddr == "" {
		return errors.New("server_addr must be set")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}

	switch c.Model.Provider {
	case ProviderOllama:
	case ProviderOpenAI:
		if c.Model.BaseURL == "" && c.Model.APIKey == "" {
			return errors.New("model.api_key or model.base_url must be set for the openai provider")
		}
	default:
		return fmt.Errorf("unknown model.provider %q", c.Model.Provider)
	}

	if c.Model.Name == "" {
		return errors.New("model.name must be set")
	}
	if c.Model.MaxLength <= 0 {
		return fmt.Errorf("invalid model.max_length: %d (must be positive)", c.Model.MaxLength)
	}
	if c.Model.MaxConcurrent <= 0 {
		return fmt.Errorf("invalid model.max_concurrent: %d (must be positive)", c.Model.MaxConcurrent)
	}
	if c.Model.InitTimeout <= 0 {
		return errors.New("model.init_timeout must be positive")
	}

	if c.Search.Enabled {
		if c.Search.Limit <= 0 {
			return fmt.Errorf("invalid search.limit: %d (must be positive)", c.Search.Limit)
		}
		if c.Search.CacheTTL < 0 {
			return errors.New("search.cache_ttl must not be negative")
		}
	}
	return nil
}
