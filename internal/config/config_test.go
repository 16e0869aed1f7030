package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPopulationURL, cfg.PopulationURL)
	assert.Equal(t, "POPESTIMATE2019", cfg.PopulationColumn)
	assert.Equal(t, DefaultObservationsURL, cfg.ObservationsURL)
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 3, cfg.SourceMaxAttempts)
	assert.True(t, cfg.PopulationAdjusted)
	assert.Equal(t, domain.TestRate, cfg.CompareX)
	assert.Equal(t, domain.PositivityRate, cfg.CompareY)
	assert.Equal(t, "testing", cfg.CompareXLabel)
	assert.Equal(t, "positive rate", cfg.CompareYLabel)
	assert.Empty(t, cfg.Regions)
	assert.False(t, cfg.StrictSnapshot)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.False(t, cfg.Serve)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 64, cfg.ReportCacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "state-comparison-snapshots", cfg.KafkaTopic)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("POPULATION_URL", "testdata/population.csv")
	t.Setenv("POPULATION_COLUMN", "POPESTIMATE2018")
	t.Setenv("OBSERVATIONS_URL", "testdata/daily.csv")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("SOURCE_MAX_ATTEMPTS", "5")
	t.Setenv("POPULATION_ADJUSTED", "false")
	t.Setenv("COMPARE_X", "growth")
	t.Setenv("COMPARE_Y", "death rate")
	t.Setenv("COMPARE_Y_LABEL", "deaths")
	t.Setenv("REGIONS", "ca, ny ,,wa")
	t.Setenv("STRICT_SNAPSHOT", "true")
	t.Setenv("WORKERS", "8")
	t.Setenv("OUTPUT_DIR", "/tmp/report")
	t.Setenv("SERVE", "true")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REPORT_CACHE_SIZE", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testdata/population.csv", cfg.PopulationURL)
	assert.Equal(t, "POPESTIMATE2018", cfg.PopulationColumn)
	assert.Equal(t, "testdata/daily.csv", cfg.ObservationsURL)
	assert.Equal(t, 5*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 5, cfg.SourceMaxAttempts)
	assert.False(t, cfg.PopulationAdjusted)
	assert.Equal(t, domain.GrowthRate, cfg.CompareX)
	assert.Equal(t, domain.DeathRate, cfg.CompareY)
	assert.Equal(t, "growth rate", cfg.CompareXLabel)
	assert.Equal(t, "deaths", cfg.CompareYLabel)
	assert.Equal(t, []string{"CA", "NY", "WA"}, cfg.Regions)
	assert.True(t, cfg.StrictSnapshot)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/report", cfg.OutputDir)
	assert.True(t, cfg.Serve)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.ReportCacheSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "snapshots", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SOURCE_TIMEOUT", "bad"},
		{"SOURCE_TIMEOUT", "-1s"},
		{"SOURCE_MAX_ATTEMPTS", "0"},
		{"WORKERS", "many"},
		{"REPORT_CACHE_SIZE", "-3"},
		{"POPULATION_ADJUSTED", "sometimes"},
		{"SERVE", "maybe"},
		{"COMPARE_X", "hospitalized"},
		{"COMPARE_Y", "icu"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}
