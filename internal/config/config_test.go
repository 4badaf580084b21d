package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PASSWORD", "test-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hazard-reports.created", cfg.KafkaReportsTopic)
	assert.Equal(t, 4, cfg.TriageWorkers)
	assert.Equal(t, 8, cfg.FanoutParallelism)
	assert.Equal(t, 5*time.Second, cfg.NotificationWriteTimeout)
	assert.Equal(t, 2*time.Second, cfg.KafkaPublishTimeout)
	assert.InDelta(t, 0.7, cfg.NotifyMinScore, 1e-9)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "pw")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_InvalidNotifyMinScore(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_MIN_SCORE", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_KafkaOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("KAFKA_REPORTS_TOPIC", "reports")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "reports", cfg.KafkaReportsTopic)
}

func TestLoad_BadDurationsFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("TRIAGE_TIMEOUT", "soon")
	t.Setenv("TRIAGE_WORKERS", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.TriageTimeout)
	assert.Equal(t, 4, cfg.TriageWorkers)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
