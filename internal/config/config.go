package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// SharedPassword is the single login secret; empty means logins fail with a server error.
	SharedPassword string
	// SessionSecret keys the session cookie signature; required in production.
	SessionSecret string
	CORSOrigins   []string

	Blob    BlobConfig
	Kafka   KafkaConfig
	Casdoor CasdoorConfig

	FrameFetchConcurrency int
	DefaultFillTimeout    time.Duration
}

type BlobConfig struct {
	Bucket          string
	CredentialsFile string
	// Dir switches frame images to a local directory instead of GCS.
	Dir      string
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	level, err := parseLogLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	concurrency, err := parseIntEnv("FRAME_FETCH_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("FRAME_FETCH_CONCURRENCY must be positive, got %d", concurrency)
	}

	blobTTL, err := parseDurationEnv("BLOB_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	fillTimeout, err := parseDurationEnv("DEFAULT_FILL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           envOrDefault("PORT", "8080"),
		Environment:    envOrDefault("ENVIRONMENT", "development"),
		LogLevel:       level,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SharedPassword: os.Getenv("PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		CORSOrigins:    splitList(envOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		Blob: BlobConfig{
			Bucket:          envOrDefault("GCS_BUCKET", "mcnulty_frames"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			Dir:             os.Getenv("BLOB_DIR"),
			CacheTTL:        blobTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		FrameFetchConcurrency: concurrency,
		DefaultFillTimeout:    fillTimeout,
	}
	if cfg.IsProduction() && cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required in production")
	}
	return cfg, nil
}

// RequireDatabase fails when no database is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
