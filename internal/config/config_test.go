package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "GCS_BUCKET", "KAFKA_BROKERS", "FRAME_FETCH_CONCURRENCY", "BLOB_CACHE_TTL", "PASSWORD", "ENVIRONMENT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.Blob.Bucket != "mcnulty_frames" {
		t.Errorf("Bucket = %q", cfg.Blob.Bucket)
	}
	if cfg.Blob.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v", cfg.Blob.CacheTTL)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.FrameFetchConcurrency != 8 {
		t.Errorf("FrameFetchConcurrency = %d", cfg.FrameFetchConcurrency)
	}
	if cfg.SharedPassword != "" {
		t.Error("SharedPassword should be empty")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("FRAME_FETCH_CONCURRENCY", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.FrameFetchConcurrency != 3 {
		t.Errorf("FrameFetchConcurrency = %d", cfg.FrameFetchConcurrency)
	}
	if cfg.SessionSecret != "s3cret" {
		t.Errorf("SessionSecret = %q", cfg.SessionSecret)
	}
}

func TestLoadConfig_ProductionNeedsSessionSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error without SESSION_SECRET in production")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"LOG_LEVEL":               "loud",
		"FRAME_FETCH_CONCURRENCY": "0",
		"BLOB_CACHE_TTL":          "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		})
	}
}
