package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 8888, c.Server.Port)
	require.Equal(t, "https://api.mercadopago.com", c.MercadoPago.BaseURL)
	require.Equal(t, 3, c.MercadoPago.MaxFetchAttempts)
	require.Equal(t, 5, c.Webhooks.MaxAttempts)
	require.Equal(t, 10*time.Second, c.Redis.LockWait)
	require.Equal(t, "order-status", c.Kafka.Topic)
	require.Empty(t, c.Kafka.Brokers)
}

func TestNew_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
mercadopago:
  webhook_secret: from-file
  max_fetch_attempts: 4
webhooks:
  require_secret: true
  timeout: 3s
kafka:
  brokers: ["k1:9092", "k2:9092"]
`), 0o600))
	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_SERVER_PORT", "9999")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "from-file", c.MercadoPago.WebhookSecret)
	require.Equal(t, 4, c.MercadoPago.MaxFetchAttempts)
	require.True(t, c.Webhooks.RequireSecret)
	require.Equal(t, 3*time.Second, c.Webhooks.Timeout)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.Equal(t, 9999, c.Server.Port)
}
