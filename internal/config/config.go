package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout     time.Duration
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration

	// Optional post-run integrations; empty settings disable them.
	KafkaBrokers       []string
	KafkaAnnounceTopic string
	DatabaseURL        string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is folded in first for
// local runs; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchBaseDelay, err := parsePositiveDuration("FETCH_BASE_DELAY", "2s")
	if err != nil {
		return nil, err
	}
	fetchMaxAttempts, err := parseFetchMaxAttempts()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         envOrDefault("DATA_DIR", "data"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FetchTimeout:     fetchTimeout,
		FetchMaxAttempts: fetchMaxAttempts,
		FetchBaseDelay:   fetchBaseDelay,

		KafkaBrokers:       parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAnnounceTopic: envOrDefault("KAFKA_ANNOUNCE_TOPIC", "climate-dataset-updates"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAnnounceTopic == "" {
		return nil, errors.New("KAFKA_ANNOUNCE_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// AnnounceEnabled reports whether the Kafka run announcer is configured.
func (c *Config) AnnounceEnabled() bool { return len(c.KafkaBrokers) > 0 }

// ArchiveEnabled reports whether the Postgres run archive is configured.
func (c *Config) ArchiveEnabled() bool { return c.DatabaseURL != "" }

// ArtifactPath is where the consolidated dataset artifact lands.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.DataDir, "climate_data.json")
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFetchMaxAttempts() (int, error) {
	s := envOrDefault("FETCH_MAX_ATTEMPTS", "3")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 10 {
		return 0, fmt.Errorf("invalid FETCH_MAX_ATTEMPTS: %q (want 1..10)", s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
