package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnvLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunk_size: 1000\nmerge_batch_size: 8\nretry_base_delay: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CHUNK_SIZE", "1500")
	t.Setenv("CHUNK_OVERLAP", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != 1500 {
		t.Errorf("env should override file: got chunk_size=%d", cfg.ChunkSize)
	}
	if cfg.MergeBatchSize != 8 {
		t.Errorf("file should override default: got merge_batch_size=%d", cfg.MergeBatchSize)
	}
	if cfg.RetryBaseDelay != 2*time.Second {
		t.Errorf("expected retry_base_delay=2s, got %s", cfg.RetryBaseDelay)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("untouched values should keep defaults: got overlap=%d", cfg.ChunkOverlap)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.AnthropicAPIKey = "key"

	if err := base.Validate(); err != nil {
		t.Fatalf("default config with key should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.AnthropicAPIKey = "" }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"overlap >= size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"batch size 1", func(c *Config) { c.MergeBatchSize = 1 }},
		{"zero attempts", func(c *Config) { c.RetryMaxAttempts = 0 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateServe_RequiresServiceKey(t *testing.T) {
	cfg := Default()
	cfg.AnthropicAPIKey = "key"
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error without DOCSUMM_API_KEY")
	}
	cfg.APIKey = "svc"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
