package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/sedentary/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEDENTARY_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, uint32(45), cfg.AlertThresholdMinutes)
	require.Equal(t, time.Second, cfg.TickInterval)
	require.Equal(t, 10*time.Second, cfg.StalenessWindow)
	require.Equal(t, 2.0, cfg.MovingThresholdG)
	require.Equal(t, 0.05, cfg.SedentaryEpsilonG)
	require.Equal(t, AlertSinkLog, cfg.AlertSink)
	require.Equal(t, StepStorePostgres, cfg.StepStore)
	require.Equal(t, time.UTC, cfg.Location)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SEDENTARY_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SEDENTARY_ALERT_THRESHOLD_MINUTES", "90")
	t.Setenv("SEDENTARY_TICK_INTERVAL", "250ms")
	t.Setenv("SEDENTARY_STEP_STORE", "SQLite")
	t.Setenv("SEDENTARY_USER_ID", " user-7 ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, uint32(90), cfg.AlertThresholdMinutes)
	require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	require.Equal(t, StepStoreSQLite, cfg.StepStore)
	require.Equal(t, "user-7", cfg.UserID)
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	for _, value := range []string{"10", "50", "135"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("SEDENTARY_ALERT_THRESHOLD_MINUTES", value)
			_, err := Load()
			require.ErrorIs(t, err, domain.ErrInvalidThreshold)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sedentary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alert-sink: webhook
alert-webhook-url: https://push.example.com/notify
alert-threshold-minutes: 30
kafka-brokers:
  - broker-a:9092
  - broker-b:9092
`), 0o600))
	t.Setenv("SEDENTARY_CONFIG", path)
	t.Setenv("SEDENTARY_ALERT_THRESHOLD_MINUTES", "60")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, AlertSinkWebhook, cfg.AlertSink)
	require.Equal(t, "https://push.example.com/notify", cfg.AlertWebhookURL)
	require.Equal(t, uint32(60), cfg.AlertThresholdMinutes, "environment wins over the file")
	require.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("SEDENTARY_ALERT_SINK", "webhook")
	t.Setenv("SEDENTARY_STEP_STORE", "redis")

	_, err := Load()
	require.ErrorContains(t, err, "alert-webhook-url")
	require.ErrorContains(t, err, "step-store")

	t.Setenv("SEDENTARY_ALERT_SINK", "log")
	t.Setenv("SEDENTARY_STEP_STORE", "sqlite")
	t.Setenv("SEDENTARY_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	require.ErrorContains(t, err, "timezone")
}
