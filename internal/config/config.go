package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the HTTP surface.
	APIKey string `yaml:"api_key"`

	// Transformation service.
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	AnthropicModel  string        `yaml:"anthropic_model"`
	CallTimeout     time.Duration `yaml:"call_timeout"`

	// Session artifacts.
	DataDir string `yaml:"data_dir"`

	// Chunking.
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Hierarchical merge.
	MergeBatchSize   int `yaml:"merge_batch_size"`
	MergeParallelism int `yaml:"merge_parallelism"`

	// Retry policy.
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	RetryValidation  bool          `yaml:"retry_validation_failures"`

	// Async job surface.
	WorkerCount    int           `yaml:"worker_count"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JobTTL         time.Duration `yaml:"job_ttl"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Port:             "8090",
		AnthropicModel:   "claude-sonnet-4-5-20250929",
		CallTimeout:      120 * time.Second,
		DataDir:          "data",
		ChunkSize:        2000,
		ChunkOverlap:     200,
		MergeBatchSize:   4,
		MergeParallelism: 1,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Second,
		RetryValidation:  true,
		WorkerCount:      2,
		MaxQueueSize:     100,
		MaxUploadBytes:   52428800, // 50MB
		JobTTL:           time.Hour,
	}
}

// Load builds the configuration: defaults, overlaid by the YAML file at path
// (if given), overlaid by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCSUMM_API_KEY", cfg.APIKey)
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.CallTimeout = envDuration("CALL_TIMEOUT", cfg.CallTimeout)
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.ChunkSize = envInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envInt("CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.MergeBatchSize = envInt("MERGE_BATCH_SIZE", cfg.MergeBatchSize)
	cfg.MergeParallelism = envInt("MERGE_PARALLELISM", cfg.MergeParallelism)
	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryBaseDelay = envDuration("RETRY_BASE_DELAY", cfg.RetryBaseDelay)
	cfg.RetryValidation = envBool("RETRY_VALIDATION", cfg.RetryValidation)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	return cfg, nil
}

// Validate fails fast on parameter combinations the pipeline would reject,
// before any session or network call happens.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.MergeBatchSize < 2 {
		return fmt.Errorf("merge_batch_size must be at least 2, got %d", c.MergeBatchSize)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry_max_attempts must be at least 1, got %d", c.RetryMaxAttempts)
	}
	return nil
}

// ValidateServe adds the requirements of the HTTP surface.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCSUMM_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
