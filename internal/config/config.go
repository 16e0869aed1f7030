package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	DefaultPopulationURL   = "http://www2.census.gov/programs-surveys/popest/datasets/2010-2019/national/totals/nst-est2019-alldata.csv"
	DefaultObservationsURL = "https://covidtracking.com/api/states/daily.csv"
)

// Config holds all tracker settings, populated from environment variables.
type Config struct {
	// Input snapshots. Values without an http(s) scheme are read as file paths.
	PopulationURL     string
	PopulationColumn  string
	ObservationsURL   string
	SourceTimeout     time.Duration
	SourceMaxAttempts int

	// Computation and comparison.
	PopulationAdjusted bool
	CompareX           domain.MetricKind
	CompareY           domain.MetricKind
	CompareXLabel      string
	CompareYLabel      string
	Regions            []string
	StrictSnapshot     bool
	Workers            int

	OutputDir string

	// Serve mode keeps the HTTP endpoints up after the run.
	Serve           bool
	HTTPAddr        string
	ReportCacheSize int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publishing of comparison rows.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOURCE_TIMEOUT", "30s"))
	if err != nil || sourceTimeout <= 0 {
		return nil, errors.New("invalid SOURCE_TIMEOUT")
	}

	maxAttempts, err := parsePositiveInt("SOURCE_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	workers, err := parsePositiveInt("WORKERS", 1)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("REPORT_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	popAdjusted, err := parseBool("POPULATION_ADJUSTED", true)
	if err != nil {
		return nil, err
	}
	strict, err := parseBool("STRICT_SNAPSHOT", false)
	if err != nil {
		return nil, err
	}
	serve, err := parseBool("SERVE", false)
	if err != nil {
		return nil, err
	}

	compareX, err := domain.ParseMetricKind(sharedcfg.EnvOrDefault("COMPARE_X", "testing"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPARE_X: %w", err)
	}
	compareY, err := domain.ParseMetricKind(sharedcfg.EnvOrDefault("COMPARE_Y", "positivity"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPARE_Y: %w", err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		PopulationURL:     sharedcfg.EnvOrDefault("POPULATION_URL", DefaultPopulationURL),
		PopulationColumn:  sharedcfg.EnvOrDefault("POPULATION_COLUMN", "POPESTIMATE2019"),
		ObservationsURL:   sharedcfg.EnvOrDefault("OBSERVATIONS_URL", DefaultObservationsURL),
		SourceTimeout:     sourceTimeout,
		SourceMaxAttempts: maxAttempts,

		PopulationAdjusted: popAdjusted,
		CompareX:           compareX,
		CompareY:           compareY,
		CompareXLabel:      sharedcfg.EnvOrDefault("COMPARE_X_LABEL", compareX.Label()),
		CompareYLabel:      sharedcfg.EnvOrDefault("COMPARE_Y_LABEL", compareY.Label()),
		Regions:            parseList(os.Getenv("REGIONS")),
		StrictSnapshot:     strict,
		Workers:            workers,

		OutputDir: sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),

		Serve:           serve,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ReportCacheSize: cacheSize,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "state-comparison-snapshots"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.PopulationURL == "" {
		return nil, errors.New("POPULATION_URL is required")
	}
	if cfg.ObservationsURL == "" {
		return nil, errors.New("OBSERVATIONS_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka publishing is enabled")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// parseList splits a comma-separated list of region codes.
func parseList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
