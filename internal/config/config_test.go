package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "synoptic-test-token"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "../data/cool_data.csv", cfg.InputPath)
	assert.Equal(t, "../data/master_data.csv", cfg.OutputPath)
	assert.Equal(t, []string{"ABQ", "EPZ"}, cfg.SoundingStations)
	assert.Equal(t, "KONM", cfg.SurfaceStation)
	assert.Equal(t, "http://weather.uwyo.edu/cgi-bin/sounding", cfg.WyomingBaseURL)
	assert.Equal(t, "https://api.synopticdata.com/v2/stations/timeseries", cfg.MesoWestBaseURL)
	assert.Equal(t, testToken, cfg.MesoWestToken)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.RetryDelay)
	assert.Equal(t, 64, cfg.SoundingCacheSize)
	assert.Empty(t, cfg.CursorDB)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.ShowProgress)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "precipitable-water-rows", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("INPUT_PATH", "/data/in.csv")
	t.Setenv("OUTPUT_PATH", "/data/out.csv")
	t.Setenv("SOUNDING_STATIONS", "oun, fwd")
	t.Setenv("SURFACE_STATION", "KABQ")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("REQUESTS_MAX_RETRIES", "3")
	t.Setenv("RETRY_DELAY", "0s")
	t.Setenv("SOUNDING_CACHE_SIZE", "0")
	t.Setenv("CURSOR_DB", "/data/cursor.db")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("PROGRESS", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/in.csv", cfg.InputPath)
	assert.Equal(t, "/data/out.csv", cfg.OutputPath)
	assert.Equal(t, []string{"OUN", "FWD"}, cfg.SoundingStations)
	assert.Equal(t, "KABQ", cfg.SurfaceStation)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.RetryDelay)
	assert.Equal(t, 0, cfg.SoundingCacheSize)
	assert.Equal(t, "/data/cursor.db", cfg.CursorDB)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.ShowProgress)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "pw", cfg.KafkaTopic)
}

func TestLoad_MissingToken(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MESOWEST_TOKEN")
}

func TestLoad_WrongStationCount(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("SOUNDING_STATIONS", "ABQ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOUNDING_STATIONS")
}

func TestLoad_InvalidMaxRetries(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("REQUESTS_MAX_RETRIES", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUESTS_MAX_RETRIES")
}

func TestLoad_InvalidRetryDelay(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("RETRY_DELAY", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETRY_DELAY")
}

func TestLoad_ZeroHTTPTimeout(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("HTTP_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("MESOWEST_TOKEN", testToken)
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
