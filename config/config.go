// Package config loads and validates the process-wide settings for askdocs.
// Settings are resolved once at startup and are read-only afterwards.
//
// Sources are applied lowest to highest precedence:
//  1. Built-in defaults
//  2. Optional YAML file (./askdocs.yaml, then ~/.config/askdocs/config.yaml)
//  3. Environment variables (a .env file is honored via godotenv)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Collection is the single named collection holding every ingested chunk.
const Collection = "knowledge_base"

// ErrMissingAPIKey is returned by Validate when no credential is configured.
// It is fatal at startup; the process must refuse to proceed without it.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// Config holds all settings consumed by the store, the engine, the
// presentation surfaces and the evaluation harness.
type Config struct {
	APIKey         string        `yaml:"-" env:"OPENAI_API_KEY"`
	EmbeddingModel string        `yaml:"embedding_model" env:"ASKDOCS_EMBEDDING_MODEL"`
	LLMModel       string        `yaml:"llm_model" env:"ASKDOCS_LLM_MODEL"`
	ChunkSize      int           `yaml:"chunk_size" env:"ASKDOCS_CHUNK_SIZE"`
	ChunkOverlap   int           `yaml:"chunk_overlap" env:"ASKDOCS_CHUNK_OVERLAP"`
	DataDir        string        `yaml:"data_dir" env:"ASKDOCS_DATA_DIR"`
	StorePath      string        `yaml:"store_path" env:"ASKDOCS_STORE_PATH"`
	TopK           int           `yaml:"top_k" env:"ASKDOCS_TOP_K"`
	Temperature    float64       `yaml:"temperature" env:"ASKDOCS_TEMPERATURE"`
	MaxRetries     int           `yaml:"max_retries" env:"ASKDOCS_MAX_RETRIES"`
	Timeout        time.Duration `yaml:"timeout" env:"ASKDOCS_TIMEOUT"`
	EnableRewrite  bool          `yaml:"enable_rewrite" env:"ASKDOCS_ENABLE_REWRITE"`
	LogLevel       string        `yaml:"log_level" env:"ASKDOCS_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		EmbeddingModel: "text-embedding-3-small",
		LLMModel:       "gpt-4o-mini",
		ChunkSize:      1000,
		ChunkOverlap:   200,
		DataDir:        filepath.Join("data", "raw"),
		StorePath:      filepath.Join("data", "store"),
		TopK:           5,
		Temperature:    0,
		MaxRetries:     3,
		Timeout:        30 * time.Second,
		EnableRewrite:  false,
		LogLevel:       "INFO",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	cfg := Default()

	path := configFilePath()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and ensures the storage directories
// exist. A missing API key is a fatal configuration error.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	for _, dir := range []string{c.DataDir, c.StorePath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func configFilePath() string {
	if _, err := os.Stat("askdocs.yaml"); err == nil {
		return "askdocs.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, ".config", "askdocs", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
