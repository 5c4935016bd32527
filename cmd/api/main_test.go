package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	key := "OPERATIONS_SERVICE_TEST_ENV"
	require.NoError(t, os.Setenv(key, "value"))
	defer os.Unsetenv(key)

	require.Equal(t, "value", getEnv(key, "default"))
	require.Equal(t, "fallback", getEnv("OPERATIONS_SERVICE_MISSING", "fallback"))
}

func TestLoadConfig(t *testing.T) {
	require.NoError(t, os.Setenv("SERVER_ADDR", ":9999"))
	require.NoError(t, os.Setenv("MONGODB_URI", "mongodb://example:27017"))
	require.NoError(t, os.Setenv("MONGODB_DATABASE", "operations_test"))
	require.NoError(t, os.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092"))
	require.NoError(t, os.Setenv("IDERIS_BASE_URL", "https://ideris.example"))
	require.NoError(t, os.Setenv("IDERIS_PRIVATE_KEY", "secret-key"))
	defer os.Unsetenv("SERVER_ADDR")
	defer os.Unsetenv("MONGODB_URI")
	defer os.Unsetenv("MONGODB_DATABASE")
	defer os.Unsetenv("KAFKA_BROKERS")
	defer os.Unsetenv("IDERIS_BASE_URL")
	defer os.Unsetenv("IDERIS_PRIVATE_KEY")

	cfg := loadConfig()
	require.Equal(t, ":9999", cfg.ServerAddr)
	require.Equal(t, "mongodb://example:27017", cfg.MongoDB.URI)
	require.Equal(t, "operations_test", cfg.MongoDB.Database)
	require.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, serviceName, cfg.Kafka.ClientID)
	require.Equal(t, "https://ideris.example", cfg.Ideris.BaseURL)
	require.Equal(t, "secret-key", cfg.Ideris.PrivateKey)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_ADDR", "MONGODB_URI", "MONGODB_DATABASE", "KAFKA_BROKERS", "IDERIS_BASE_URL", "IDERIS_PRIVATE_KEY"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := loadConfig()
	require.Equal(t, ":8080", cfg.ServerAddr)
	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "operations_db", cfg.MongoDB.Database)
	require.Equal(t, "https://apiv3.ideris.com.br", cfg.Ideris.BaseURL)
	require.Empty(t, cfg.Ideris.PrivateKey)
}
