package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// iSDA provider configuration.
	ISDABaseURL      string
	ISDAUsername     string
	ISDAPassword     string
	ISDAAuthTimeout  time.Duration
	ISDAFetchTimeout time.Duration
	PayloadCacheSize int

	// Report publishing configuration. Publishing is enabled when a report
	// topic is configured.
	KafkaBrokers     []string
	KafkaReportTopic string
	KafkaEnabled     bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	authTimeout, err := parseTimeout("ISDA_AUTH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	// The unfiltered soilproperty payload is large; give it headroom.
	fetchTimeout, err := parseTimeout("ISDA_FETCH_TIMEOUT", "45s")
	if err != nil {
		return nil, err
	}

	reportTopic := os.Getenv("KAFKA_REPORT_TOPIC")
	kafkaEnabled := reportTopic != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ISDABaseURL:      sharedcfg.EnvOrDefault("ISDA_BASE_URL", "https://api.isda-africa.com"),
		ISDAUsername:     os.Getenv("ISDA_USERNAME"),
		ISDAPassword:     os.Getenv("ISDA_PASSWORD"),
		ISDAAuthTimeout:  authTimeout,
		ISDAFetchTimeout: fetchTimeout,
		PayloadCacheSize: parsePayloadCacheSize(),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: reportTopic,
		KafkaEnabled:     kafkaEnabled,
	}

	if cfg.ISDAUsername == "" || cfg.ISDAPassword == "" {
		return nil, errors.New("ISDA_USERNAME and ISDA_PASSWORD are required")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_REPORT_TOPIC is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when report publishing is enabled")
	}

	return cfg, nil
}

func parseTimeout(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePayloadCacheSize() int {
	if s := os.Getenv("PAYLOAD_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
