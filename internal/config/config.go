package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all import settings, populated from environment variables.
type Config struct {
	InputPath  string
	OutputPath string

	SoundingStations []string
	SurfaceStation   string

	WyomingBaseURL    string
	MesoWestBaseURL   string
	MesoWestToken     string
	HTTPTimeout       time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	SoundingCacheSize int

	// CursorDB enables the SQLite resume cursor when set.
	CursorDB string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShowProgress    bool
	ShutdownTimeout time.Duration

	// Kafka row fan-out.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	retryDelay, err := parseDuration("RETRY_DELAY", "60s")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseNonNegativeInt("REQUESTS_MAX_RETRIES", 10)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("SOUNDING_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := kafkaBrokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	var brokers []string
	if kafkaBrokers != "" {
		brokers = sharedcfg.ParseBrokers(kafkaBrokers)
	}

	cfg := &Config{
		InputPath:         sharedcfg.EnvOrDefault("INPUT_PATH", "../data/cool_data.csv"),
		OutputPath:        sharedcfg.EnvOrDefault("OUTPUT_PATH", "../data/master_data.csv"),
		SoundingStations:  parseList(sharedcfg.EnvOrDefault("SOUNDING_STATIONS", "ABQ,EPZ")),
		SurfaceStation:    strings.TrimSpace(sharedcfg.EnvOrDefault("SURFACE_STATION", "KONM")),
		WyomingBaseURL:    sharedcfg.EnvOrDefault("WYOMING_BASE_URL", "http://weather.uwyo.edu/cgi-bin/sounding"),
		MesoWestBaseURL:   sharedcfg.EnvOrDefault("MESOWEST_BASE_URL", "https://api.synopticdata.com/v2/stations/timeseries"),
		MesoWestToken:     os.Getenv("MESOWEST_TOKEN"),
		HTTPTimeout:       httpTimeout,
		MaxRetries:        maxRetries,
		RetryDelay:        retryDelay,
		SoundingCacheSize: cacheSize,
		CursorDB:          os.Getenv("CURSOR_DB"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShowProgress:      sharedcfg.EnvOrDefault("PROGRESS", "true") != "false",
		ShutdownTimeout:   shutdownTimeout,
		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      brokers,
		KafkaTopic:        sharedcfg.EnvOrDefault("KAFKA_TOPIC", "precipitable-water-rows"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if len(cfg.SoundingStations) != 2 {
		return nil, fmt.Errorf("SOUNDING_STATIONS must name exactly two stations, got %d", len(cfg.SoundingStations))
	}
	if cfg.SurfaceStation == "" {
		return nil, errors.New("SURFACE_STATION is required")
	}
	if cfg.MesoWestToken == "" {
		return nil, errors.New("MESOWEST_TOKEN is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
